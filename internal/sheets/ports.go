package sheets

import (
	"context"

	"forecast/internal/core"
)

// Ports for outbound adapters.
type (
	// ForecastExporter mirrors a project's forecast matrix into a spreadsheet.
	ForecastExporter interface {
		ExportForecast(ctx context.Context, project core.Project, rows [][]string) error
	}

	// ForecastReader reads an exported matrix back, header row included.
	ForecastReader interface {
		ReadForecast(ctx context.Context, project core.Project) ([][]string, error)
	}
)
