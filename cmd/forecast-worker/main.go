package main

import (
	"context"
	"errors"
	"time"

	"forecast/internal/amqp"
	"forecast/internal/backend"
	"forecast/internal/cli"
	"forecast/internal/config"
	"forecast/internal/core"
	applog "forecast/internal/log"
	"forecast/internal/services"
	"forecast/internal/sheets"
	gsheet "forecast/internal/sheets/google"
	sheetsmem "forecast/internal/sheets/memory"
	"forecast/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting forecast-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	calendar, err := core.NewFiscalCalendar(cfg.FiscalStartMonth)
	if err != nil {
		cli.Fatal(logger, "Invalid fiscal calendar", err)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	// The worker consumes; it never publishes.
	backendCfg.AMQPURL = ""
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}()

	exporter := newExporter(logger, cfg)
	forecasts := services.NewForecastService(res.Store, res.Preferences, nil, nil, calendar)
	exportWorker := worker.NewExportWorker(res.Store, forecasts, exporter, cfg.ExportBatchSize)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Performing startup export")
	if err := exportWorker.ExportAll(ctx); err != nil {
		// Don't exit - the periodic export retries
		logger.Error("Startup export failed", "error", err)
	}

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize AMQP client", err)
		}
		defer amqpClient.Close()

		go func() {
			err := amqpClient.ConsumeForecastSaved(ctx, exportWorker.HandleForecastSaved)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
	}

	go func() {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := exportWorker.ExportAll(ctx); err != nil {
					logger.Error("Periodic export failed", "error", err)
				}
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

// newExporter returns the Google Sheets exporter when a spreadsheet is
// configured, otherwise an in-memory one so the worker still runs locally.
func newExporter(logger *applog.Logger, cfg *config.Config) sheets.ForecastExporter {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting in memory")
		return sheetsmem.New()
	}
	client, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client
}
