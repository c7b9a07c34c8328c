package memory

import (
	"context"
	"fmt"
	"sync"

	"forecast/internal/core"
	ports "forecast/internal/sheets"
)

// Exporter keeps exported grids in memory, keyed by sheet title. It stands
// in for Google Sheets when no spreadsheet is configured.
type Exporter struct {
	mu     sync.Mutex
	sheets map[string][][]string
	count  int
}

var (
	_ ports.ForecastExporter = (*Exporter)(nil)
	_ ports.ForecastReader   = (*Exporter)(nil)
)

func New() *Exporter {
	return &Exporter{sheets: map[string][][]string{}}
}

func (e *Exporter) ExportForecast(_ context.Context, project core.Project, rows [][]string) error {
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sheets[ports.SheetTitle(project)] = cp
	e.count++
	return nil
}

func (e *Exporter) ReadForecast(_ context.Context, project core.Project) ([][]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, ok := e.sheets[ports.SheetTitle(project)]
	if !ok {
		return nil, fmt.Errorf("no sheet for project %s", project.ID)
	}
	return rows, nil
}

// Exports returns how many exports were made.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}
