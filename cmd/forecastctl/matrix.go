package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"forecast/internal/cli"
	"forecast/internal/services"
	"forecast/internal/sheets"
)

var flagProject string

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Render a fixed-price project's forecast matrix",
	RunE:  runMatrix,
}

func init() {
	matrixCmd.Flags().StringVarP(&flagProject, "project", "p", "", "project id")
	_ = matrixCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(matrixCmd)
}

func runMatrix(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cal, err := fiscalCalendar()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	res, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend(res)

	project, err := res.Store.GetProject(ctx, flagProject)
	if err != nil {
		return fmt.Errorf("project %q: %w", flagProject, err)
	}
	m, err := services.NewForecastService(res.Store, res.Preferences, nil, nil, cal).Load(ctx, flagProject)
	if err != nil {
		return err
	}

	grid := sheets.Grid(m)
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(cli.Table{
		Title:   sheets.SheetTitle(project),
		Headers: grid[0],
		Rows:    grid[1:],
	}))
	return nil
}
