package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"forecast/internal/backend"
	"forecast/internal/cli"
	"forecast/internal/config"
	"forecast/internal/core"
	applog "forecast/internal/log"
)

var (
	flagFiscalStart int
	flagBackend     string
	flagDBPath      string
	flagSeedFile    string
)

var rootCmd = &cobra.Command{
	Use:   "forecastctl",
	Short: "Inspect project forecasts and timesheets from the command line",
	Long: `forecastctl works against the same data backend as the forecast server.
It prints month buckets and financial periods, renders a project's forecast
matrix, resolves a user's timesheet for the current week and manages the
SQLite schema and seed data.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		cli.LoadEnvFile()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagFiscalStart, "fiscal-start", 0, "first month of the financial year (default from FISCAL_START_MONTH)")
	types := make([]string, 0, 2)
	for _, t := range backend.GetBackendTypes() {
		types = append(types, t.String())
	}
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "data backend: "+strings.Join(types, " or ")+" (default from DATA_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path (default from SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&flagSeedFile, "seed", "", "JSON seed file for the memory backend (default from SEED_FILE)")
}

// loadConfig reads the environment and applies the persistent flags on top.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if flagFiscalStart != 0 {
		cfg.FiscalStartMonth = flagFiscalStart
	}
	if flagBackend != "" {
		cfg.DataBackend = flagBackend
	}
	if flagDBPath != "" {
		cfg.SQLiteDBPath = flagDBPath
	}
	if flagSeedFile != "" {
		cfg.SeedFile = flagSeedFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fiscalCalendar() (core.FiscalCalendar, error) {
	cfg, err := loadConfig()
	if err != nil {
		return core.FiscalCalendar{}, err
	}
	return core.NewFiscalCalendar(cfg.FiscalStartMonth)
}

// openBackend builds the configured backend. The command line never
// publishes save events and logs only warnings, to stderr.
func openBackend(ctx context.Context, cfg *config.Config) (*backend.BackendResult, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	backendCfg.AMQPURL = ""
	logCfg := applog.DefaultConfig()
	logCfg.Component = applog.ComponentCLI
	logCfg.Level = slog.LevelWarn
	logCfg.Output = os.Stderr
	logger := applog.New(logCfg)
	applog.SetDefault(logger)
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	return res, nil
}

func closeBackend(res *backend.BackendResult) {
	if err := res.Cleanup(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}
