package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"forecast/internal/cli"
	"forecast/internal/services"
)

var (
	flagUser string
	flagDate string
)

var timesheetCmd = &cobra.Command{
	Use:   "timesheet",
	Short: "Resolve, creating if needed, a user's timesheet for the week",
	RunE:  runTimesheet,
}

func init() {
	timesheetCmd.Flags().StringVarP(&flagUser, "user", "u", "", "user id")
	timesheetCmd.Flags().StringVar(&flagDate, "date", "", "day within the week (YYYY-MM-DD, default today)")
	_ = timesheetCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(timesheetCmd)
}

func runTimesheet(cmd *cobra.Command, _ []string) error {
	now := time.Now()
	if flagDate != "" {
		d, err := time.Parse(time.DateOnly, flagDate)
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
		now = d
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	res, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend(res)

	nav, err := services.NewTimesheetNavigator(res.Store, res.Store).CurrentTimesheet(ctx, flagUser, now)
	if errors.Is(err, services.ErrNotAuthorized) {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.RenderWarning(services.NotAuthorizedMessage))
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "week of %s: %s %s=%s\n",
		services.WeekOf(now), nav.Screen, services.ParamRecordID, nav.Params[services.ParamRecordID])
	return nil
}
