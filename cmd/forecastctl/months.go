package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"forecast/internal/cli"
	"forecast/internal/core"
)

var monthsCmd = &cobra.Command{
	Use:   "months START END",
	Short: "List the calendar months between two dates (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(2),
	RunE:  runMonths,
}

func init() {
	rootCmd.AddCommand(monthsCmd)
}

func runMonths(cmd *cobra.Command, args []string) error {
	start, err := core.ParseDate(args[0])
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := core.ParseDate(args[1])
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	cal, err := fiscalCalendar()
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(monthsTable(core.Months(start.Time, end.Time), cal)))
	return nil
}

func monthsTable(months []core.MonthBucket, cal core.FiscalCalendar) cli.Table {
	t := cli.Table{Headers: []string{"Month", "Financial Year", "Financial Month"}}
	for _, b := range months {
		fy, fm := cal.ToFinancial(b)
		t.Rows = append(t.Rows, []string{b.Label(), fmt.Sprint(fy), fmt.Sprint(fm)})
	}
	return t
}
