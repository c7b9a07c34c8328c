package sheets

import (
	"reflect"
	"strings"
	"testing"

	"forecast/internal/core"
)

func TestGrid(t *testing.T) {
	months := core.Months(core.NewDate(2018, 12, 1).Time, core.NewDate(2019, 1, 31).Time)
	m, err := core.BuildMatrix("p1", months, nil, nil, core.DefaultFiscalCalendar())
	if err != nil {
		t.Fatalf("BuildMatrix: %v", err)
	}
	if err := m.SetCell(core.MonthBucket{Year: 2019, Month: 1}, core.Revenue, "1200.5"); err != nil {
		t.Fatalf("SetCell: %v", err)
	}

	got := Grid(m)
	want := [][]string{
		{"Category", "Dec 2018", "Jan 2019"},
		{"Revenue", "0.00", "1200.50"},
		{"Planned Cost", "0.00", "0.00"},
		{"Planned Margin", "0.00", "1200.50"},
		{"Cost from Roster", "0.00", "0.00"},
		{"Actual Margin", "0.00", "1200.50"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Grid =\n%v\nwant\n%v", got, want)
	}
}

func TestSheetTitle(t *testing.T) {
	tests := []struct {
		name string
		p    core.Project
		want string
	}{
		{"plain", core.Project{ID: "1", Name: "Harbour Bridge"}, "Harbour Bridge"},
		{"invalid chars", core.Project{ID: "1", Name: "R&D: phase [2]/3?"}, "R&D phase 23"},
		{"empty", core.Project{ID: "42", Name: " ?* "}, "Project 42"},
		{"long", core.Project{ID: "1", Name: strings.Repeat("x", 150)}, strings.Repeat("x", 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SheetTitle(tt.p); got != tt.want {
				t.Fatalf("SheetTitle = %q, want %q", got, tt.want)
			}
		})
	}
}
