package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FixedPriceProject is the project type code of projects that carry a forecast.
const FixedPriceProject = "3"

// Forecast types stored with a forecast entry. The numeric value is the
// persisted code.
const (
	PlannedCostType ForecastType = 1
	RevenueType     ForecastType = 2
)

type (
	ForecastType int

	Date struct {
		time.Time
	}

	Project struct {
		ID        string
		Name      string
		Type      string // project type code, see FixedPriceProject
		StartDate Date
		EndDate   Date
	}

	Consultant struct {
		ID           string
		UserID       string
		Name         string
		InternalRate decimal.NullDecimal
	}

	// RosterEntry is one scheduled day of a consultant on a project.
	RosterEntry struct {
		ID         string
		Date       Date
		ProjectID  string
		Consultant Consultant
	}

	// ForecastEntry is a stored monthly amount, keyed by financial period.
	ForecastEntry struct {
		ID             string
		FinancialYear  int
		FinancialMonth int // 1-12, 1 is the first month of the financial year
		Type           ForecastType
		Amount         decimal.Decimal
		ProjectID      string
	}

	Timesheet struct {
		ID           string
		Week         Date // Monday of the week
		ConsultantID string
	}
)

var (
	ErrInvalidDay          = errors.New("invalid day")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyName           = errors.New("empty name")
	ErrEmptyProject        = errors.New("empty project reference")
	ErrUnknownForecastType = errors.New("unknown forecast type")
	ErrUnknownCategory     = errors.New("unknown category")
	ErrNotEditable         = errors.New("category is not editable")
	ErrInvalidPeriod       = errors.New("end date before start date")
)

var forecastTypeCodes = map[ForecastType]string{
	PlannedCostType: "1",
	RevenueType:     "2",
}

// ParseForecastType maps a stored code ("1", "2") to its ForecastType.
func ParseForecastType(code string) (ForecastType, error) {
	code = strings.TrimSpace(code)
	for t, c := range forecastTypeCodes {
		if c == code {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: code %q", ErrUnknownForecastType, code)
}

// Code returns the persisted code of the forecast type.
func (t ForecastType) Code() string {
	if c, ok := forecastTypeCodes[t]; ok {
		return c
	}
	return strconv.Itoa(int(t))
}

func (t ForecastType) Valid() bool {
	_, ok := forecastTypeCodes[t]
	return ok
}

// Category returns the matrix row backed by this forecast type.
func (t ForecastType) Category() (Category, error) {
	switch t {
	case PlannedCostType:
		return PlannedCost, nil
	case RevenueType:
		return Revenue, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownForecastType, int(t))
	}
}

func (t ForecastType) String() string {
	c, err := t.Category()
	if err != nil {
		return "ForecastType(" + strconv.Itoa(int(t)) + ")"
	}
	return c.String()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// IsFixedPrice reports whether the project is a Fixed Price project.
func (p Project) IsFixedPrice() bool {
	return p.Type == FixedPriceProject
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if err := p.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if err := p.EndDate.Validate(); err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if p.EndDate.Before(p.StartDate.Time) {
		return ErrInvalidPeriod
	}
	return nil
}

// Rate is the consultant's internal rate, zero when none is recorded.
func (r RosterEntry) Rate() decimal.Decimal {
	if !r.Consultant.InternalRate.Valid {
		return decimal.Zero
	}
	return r.Consultant.InternalRate.Decimal
}

func (e ForecastEntry) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownForecastType, int(e.Type))
	}
	if e.FinancialMonth < 1 || e.FinancialMonth > 12 {
		return ErrInvalidMonth
	}
	if strings.TrimSpace(e.ProjectID) == "" {
		return ErrEmptyProject
	}
	return nil
}
