package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"forecast/internal/backend"
	"forecast/internal/cache"
	"forecast/internal/cli"
	"forecast/internal/core"
	apphttp "forecast/internal/http"
	applog "forecast/internal/log"
	"forecast/internal/services"
)

const cacheSweepInterval = 10 * time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	calendar, err := core.NewFiscalCalendar(cfg.FiscalStartMonth)
	if err != nil {
		cli.Fatal(logger, "Invalid fiscal calendar", err)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}

	drafts := cache.NewLRUCache[*core.Matrix](cfg.DraftCacheSize, cfg.DraftCacheTTL)
	caches := cache.NewManager()
	caches.Register("drafts", drafts)
	caches.StartCleanup(cacheSweepInterval)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Forecast:  services.NewForecastService(res.Store, res.Preferences, drafts, res.Publisher, calendar),
		Timesheet: services.NewTimesheetNavigator(res.Store, res.Store),
		Ready:     res.Ping,
		Caches:    caches,
		Logger:    logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting forecast server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"fiscal_start_month", cfg.FiscalStartMonth,
		"publisher", res.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
