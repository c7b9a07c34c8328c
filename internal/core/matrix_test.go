package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func rosterOn(y, m, d int, rate int64) RosterEntry {
	return RosterEntry{
		Date:      NewDate(y, m, d),
		ProjectID: "p1",
		Consultant: Consultant{
			ID:           "c1",
			InternalRate: decimal.NewNullDecimal(decimal.NewFromInt(rate)),
		},
	}
}

func mustBuild(t *testing.T, months []MonthBucket, roster []RosterEntry, entries []ForecastEntry) *Matrix {
	t.Helper()
	m, err := BuildMatrix("p1", months, roster, entries, DefaultFiscalCalendar())
	if err != nil {
		t.Fatalf("build matrix: %v", err)
	}
	return m
}

func expectAmount(t *testing.T, m *Matrix, b MonthBucket, c Category, want int64) {
	t.Helper()
	if got := m.Amount(b, c); !got.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("%v %v: expected %d, got %s", b, c, want, got)
	}
}

func TestMarginsDefaultToZero(t *testing.T) {
	jan := MonthBucket{2019, 1}
	m := mustBuild(t, []MonthBucket{jan}, nil, nil)
	expectAmount(t, m, jan, PlannedMargin, 0)
	expectAmount(t, m, jan, ActualMargin, 0)
	if _, ok := m.Cell(jan, PlannedMargin); !ok {
		t.Fatalf("margin cell should exist for every project month")
	}
}

func TestRosterCostIsSummed(t *testing.T) {
	jan := MonthBucket{2019, 1}
	m := mustBuild(t, []MonthBucket{jan}, []RosterEntry{
		rosterOn(2019, 1, 3, 100),
		rosterOn(2019, 1, 4, 150),
	}, nil)
	expectAmount(t, m, jan, CostFromRoster, 250)
	expectAmount(t, m, jan, ActualMargin, -250)
	expectAmount(t, m, jan, PlannedMargin, 0)
}

func TestRosterWithoutRateCountsZero(t *testing.T) {
	jan := MonthBucket{2019, 1}
	noRate := RosterEntry{Date: NewDate(2019, 1, 7), ProjectID: "p1"}
	m := mustBuild(t, []MonthBucket{jan}, []RosterEntry{noRate, rosterOn(2019, 1, 8, 80)}, nil)
	expectAmount(t, m, jan, CostFromRoster, 80)
}

func TestStoredEntriesAreMappedToCalendarMonths(t *testing.T) {
	nov := MonthBucket{2018, 11}
	// November 2018 is month 5 of FY2019 with a July start.
	entries := []ForecastEntry{
		{ID: "e1", FinancialYear: 2019, FinancialMonth: 5, Type: RevenueType, Amount: decimal.NewFromInt(800), ProjectID: "p1"},
		{ID: "e2", FinancialYear: 2019, FinancialMonth: 5, Type: PlannedCostType, Amount: decimal.NewFromInt(500), ProjectID: "p1"},
	}
	m := mustBuild(t, []MonthBucket{nov}, []RosterEntry{rosterOn(2018, 11, 20, 300)}, entries)
	expectAmount(t, m, nov, Revenue, 800)
	expectAmount(t, m, nov, PlannedCost, 500)
	expectAmount(t, m, nov, PlannedMargin, 300)
	expectAmount(t, m, nov, ActualMargin, 500)

	cell, _ := m.Cell(nov, PlannedMargin)
	if cell.FinancialYear != 2019 || cell.FinancialMonth != 5 {
		t.Fatalf("margin cell carries FY%d/%d", cell.FinancialYear, cell.FinancialMonth)
	}
}

func TestUnknownStoredTypeFails(t *testing.T) {
	_, err := BuildMatrix("p1", nil, nil, []ForecastEntry{{ID: "x", Type: 5, FinancialMonth: 1}}, DefaultFiscalCalendar())
	if !errors.Is(err, ErrUnknownForecastType) {
		t.Fatalf("expected ErrUnknownForecastType, got %v", err)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	months := Months(NewDate(2018, 11, 15).Time, NewDate(2019, 2, 10).Time)
	roster := []RosterEntry{rosterOn(2018, 12, 3, 100), rosterOn(2019, 2, 1, 90)}
	entries := []ForecastEntry{{FinancialYear: 2019, FinancialMonth: 6, Type: RevenueType, Amount: decimal.NewFromInt(1000), ProjectID: "p1"}}

	a := mustBuild(t, months, roster, entries)
	b := mustBuild(t, months, roster, entries)
	if !reflect.DeepEqual(a.Snapshot(), b.Snapshot()) {
		t.Fatalf("aggregation is not idempotent")
	}
}

func TestSetCellRecomputesMargins(t *testing.T) {
	jan := MonthBucket{2019, 1}
	m := mustBuild(t, []MonthBucket{jan}, []RosterEntry{rosterOn(2019, 1, 2, 200)}, nil)

	if err := m.SetCell(jan, Revenue, "1000"); err != nil {
		t.Fatalf("set revenue: %v", err)
	}
	expectAmount(t, m, jan, PlannedMargin, 1000)
	expectAmount(t, m, jan, ActualMargin, 800)

	if err := m.SetCell(jan, PlannedCost, "400"); err != nil {
		t.Fatalf("set planned cost: %v", err)
	}
	expectAmount(t, m, jan, PlannedMargin, 600)

	cell, _ := m.Cell(jan, PlannedCost)
	if cell.FinancialYear != 2019 || cell.FinancialMonth != 7 || cell.ProjectID != "p1" {
		t.Fatalf("unexpected cell metadata %+v", cell)
	}
}

func TestSetCellRejectsInvalidInput(t *testing.T) {
	jan := MonthBucket{2019, 1}
	m := mustBuild(t, []MonthBucket{jan}, nil, nil)
	if err := m.SetCell(jan, PlannedCost, "500"); err != nil {
		t.Fatalf("set: %v", err)
	}
	before := m.Snapshot()

	if err := m.SetCell(jan, PlannedCost, "abc"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := m.SetCell(jan, ActualMargin, "1"); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
	if err := m.SetCell(MonthBucket{2019, 13}, Revenue, "1"); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if !reflect.DeepEqual(before, m.Snapshot()) {
		t.Fatalf("rejected edits must not change the matrix")
	}
	expectAmount(t, m, jan, PlannedCost, 500)
}

func TestEditableEntriesExcludeComputedRows(t *testing.T) {
	jan := MonthBucket{2019, 1}
	m := mustBuild(t, []MonthBucket{jan}, []RosterEntry{rosterOn(2019, 1, 2, 200)}, nil)
	_ = m.SetCell(jan, PlannedCost, "500")
	_ = m.SetCell(jan, Revenue, "800")

	got := m.EditableEntries()
	if len(got) != 2 {
		t.Fatalf("expected 2 persisted entries, got %d: %+v", len(got), got)
	}
	for _, e := range got {
		if err := e.Validate(); err != nil {
			t.Fatalf("entry %+v invalid: %v", e, err)
		}
		if e.FinancialYear != 2019 || e.FinancialMonth != 7 {
			t.Fatalf("unexpected period FY%d/%d", e.FinancialYear, e.FinancialMonth)
		}
	}
}

func TestRowsLayout(t *testing.T) {
	months := []MonthBucket{{2019, 1}, {2019, 2}}
	m := mustBuild(t, months, nil, nil)
	rows := m.Rows()
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	wantOrder := []Category{Revenue, PlannedCost, PlannedMargin, CostFromRoster, ActualMargin}
	for i, r := range rows {
		if r.Category != wantOrder[i] {
			t.Fatalf("row %d: expected %v, got %v", i, wantOrder[i], r.Category)
		}
		if len(r.Cells) != len(months) {
			t.Fatalf("row %v: expected %d cells, got %d", r.Category, len(months), len(r.Cells))
		}
	}
	if !rows[0].Editable || rows[2].Editable || !rows[2].Margin || rows[3].Margin {
		t.Fatalf("unexpected row flags: %+v", rows)
	}
}
