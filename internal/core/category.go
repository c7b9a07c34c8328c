package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Category is a row of the forecast matrix.
type Category int

// Categories in display order.
const (
	Revenue Category = iota + 1
	PlannedCost
	PlannedMargin
	CostFromRoster
	ActualMargin
)

var categoryLabels = map[Category]string{
	Revenue:        "Revenue",
	PlannedCost:    "Planned Cost",
	PlannedMargin:  "Planned Margin",
	CostFromRoster: "Cost from Roster",
	ActualMargin:   "Actual Margin",
}

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{Revenue, PlannedCost, PlannedMargin, CostFromRoster, ActualMargin}
}

// ParseCategory accepts a display label ("Planned Cost") or the compact
// form used in URLs ("planned-cost", "plannedcost").
func ParseCategory(label string) (Category, error) {
	norm := normalizeLabel(label)
	for c, l := range categoryLabels {
		if normalizeLabel(l) == norm {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, label)
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

func (c Category) String() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return "Category(" + strconv.Itoa(int(c)) + ")"
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ForecastType returns the stored type backing an editable category.
func (c Category) ForecastType() (ForecastType, bool) {
	switch c {
	case PlannedCost:
		return PlannedCostType, true
	case Revenue:
		return RevenueType, true
	default:
		return 0, false
	}
}

// Editable reports whether users may type into cells of this row.
func (c Category) Editable() bool {
	_, ok := c.ForecastType()
	return ok
}

// Margin reports whether the row is derived from other rows.
func (c Category) Margin() bool {
	return c == PlannedMargin || c == ActualMargin
}
