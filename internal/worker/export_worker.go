package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"forecast/internal/amqp"
	"forecast/internal/core"
	"forecast/internal/sheets"
	"forecast/internal/storage"
)

// MatrixLoader builds a project's forecast matrix from storage.
type MatrixLoader interface {
	Load(ctx context.Context, projectID string) (*core.Matrix, error)
}

// ExportWorker mirrors saved forecasts into the spreadsheet. It reacts to
// forecast saved messages and also re-exports every project periodically
// to recover from lost messages.
type ExportWorker struct {
	projects  storage.ProjectReader
	loader    MatrixLoader
	exporter  sheets.ForecastExporter
	batchSize int
}

func NewExportWorker(projects storage.ProjectReader, loader MatrixLoader, exporter sheets.ForecastExporter, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ExportWorker{
		projects:  projects,
		loader:    loader,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleForecastSaved exports the project named in msg.
func (w *ExportWorker) HandleForecastSaved(ctx context.Context, msg *amqp.ForecastSavedMessage) error {
	slog.InfoContext(ctx, "Processing forecast saved message",
		"message_id", msg.ID,
		"project_id", msg.ProjectID,
		"saved_by", msg.SavedBy,
		"entries", len(msg.Entries))

	if err := w.ExportProject(ctx, msg.ProjectID); err != nil {
		return fmt.Errorf("export project %s: %w", msg.ProjectID, err)
	}
	return nil
}

// ExportProject reloads the project from storage and writes its matrix.
func (w *ExportWorker) ExportProject(ctx context.Context, projectID string) error {
	project, err := w.projects.GetProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	m, err := w.loader.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("load matrix: %w", err)
	}
	if err := w.exporter.ExportForecast(ctx, project, sheets.Grid(m)); err != nil {
		return fmt.Errorf("export matrix: %w", err)
	}
	return nil
}

// ExportAll exports every Fixed Price project, up to the batch size. A
// failing project does not stop the others.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	projects, err := w.projects.ListProjectsByType(ctx, core.FixedPriceProject, w.batchSize)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}

	var errs []error
	exported := 0
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.ExportProject(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export project", "project_id", p.ID, "error", err)
			errs = append(errs, fmt.Errorf("project %s: %w", p.ID, err))
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Periodic export completed",
		"projects", len(projects),
		"exported", exported,
		"errors", len(errs))
	return errors.Join(errs...)
}
