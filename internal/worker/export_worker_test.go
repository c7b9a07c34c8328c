package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"forecast/internal/amqp"
	"forecast/internal/core"
	"forecast/internal/services"
	sheetsmem "forecast/internal/sheets/memory"
	"forecast/internal/storage/memory"
)

func setup(t *testing.T) (*memory.Store, *services.ForecastService) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	for _, p := range []core.Project{
		{ID: "p1", Name: "Bridge", Type: core.FixedPriceProject, StartDate: core.NewDate(2019, 1, 1), EndDate: core.NewDate(2019, 2, 28)},
		{ID: "p2", Name: "Tunnel", Type: core.FixedPriceProject, StartDate: core.NewDate(2019, 1, 1), EndDate: core.NewDate(2019, 1, 31)},
		{ID: "p3", Name: "Audit", Type: "1", StartDate: core.NewDate(2019, 1, 1), EndDate: core.NewDate(2019, 1, 31)},
	} {
		_, err := store.SaveProject(ctx, p)
		require.NoError(t, err)
	}
	require.NoError(t, store.ReplaceForecastEntries(ctx, "p1", []core.ForecastEntry{
		{FinancialYear: 2019, FinancialMonth: 7, Type: core.RevenueType, Amount: decimal.NewFromInt(900), ProjectID: "p1"},
	}))
	return store, services.NewForecastService(store, nil, nil, nil, core.DefaultFiscalCalendar())
}

func TestHandleForecastSaved(t *testing.T) {
	ctx := context.Background()
	store, svc := setup(t)
	exporter := sheetsmem.New()
	w := NewExportWorker(store, svc, exporter, 0)

	err := w.HandleForecastSaved(ctx, amqp.NewForecastSavedMessage("p1", "u1", nil))
	require.NoError(t, err)

	rows, err := exporter.ReadForecast(ctx, core.Project{ID: "p1", Name: "Bridge"})
	require.NoError(t, err)
	require.Equal(t, []string{"Category", "Jan 2019", "Feb 2019"}, rows[0])
	require.Equal(t, []string{"Revenue", "900.00", "0.00"}, rows[1])

	err = w.HandleForecastSaved(ctx, amqp.NewForecastSavedMessage("missing", "u1", nil))
	require.Error(t, err)
}

type failingExporter struct{}

func (failingExporter) ExportForecast(context.Context, core.Project, [][]string) error {
	return errors.New("quota exceeded")
}

func TestExportAll(t *testing.T) {
	ctx := context.Background()
	store, svc := setup(t)
	exporter := sheetsmem.New()

	require.NoError(t, NewExportWorker(store, svc, exporter, 10).ExportAll(ctx))
	require.Equal(t, 2, exporter.Exports(), "only fixed price projects are exported")

	// "Audit" sorts first but is not fixed price; the batch still holds a
	// project to export.
	single := sheetsmem.New()
	require.NoError(t, NewExportWorker(store, svc, single, 1).ExportAll(ctx))
	require.Equal(t, 1, single.Exports())
	_, err := single.ReadForecast(ctx, core.Project{ID: "p1", Name: "Bridge"})
	require.NoError(t, err)

	err = NewExportWorker(store, svc, failingExporter{}, 10).ExportAll(ctx)
	require.ErrorContains(t, err, "quota exceeded")
}
