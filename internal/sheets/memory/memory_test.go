package memory

import (
	"context"
	"testing"

	"forecast/internal/core"
)

func TestExporterReplacesSheet(t *testing.T) {
	ctx := context.Background()
	e := New()
	p := core.Project{ID: "p1", Name: "Bridge"}

	if _, err := e.ReadForecast(ctx, p); err == nil {
		t.Fatal("expected error before first export")
	}

	rows := [][]string{{"Category", "Jan 2019"}, {"Revenue", "1.00"}}
	if err := e.ExportForecast(ctx, p, rows); err != nil {
		t.Fatalf("export: %v", err)
	}
	rows[1][1] = "mutated"

	if err := e.ExportForecast(ctx, p, [][]string{{"Category"}}); err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err := e.ReadForecast(ctx, p)
	if err != nil || len(got) != 1 {
		t.Fatalf("unexpected sheet: %v, %v", got, err)
	}
	if e.Exports() != 2 {
		t.Fatalf("exports = %d", e.Exports())
	}
}
