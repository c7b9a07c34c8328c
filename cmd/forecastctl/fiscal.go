package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"forecast/internal/core"
)

var fiscalCmd = &cobra.Command{
	Use:   "fiscal DATE",
	Short: "Print the financial year and month of a date (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiscal,
}

func init() {
	rootCmd.AddCommand(fiscalCmd)
}

func runFiscal(cmd *cobra.Command, args []string) error {
	d, err := core.ParseDate(args[0])
	if err != nil {
		return err
	}
	cal, err := fiscalCalendar()
	if err != nil {
		return err
	}
	fy, fm := cal.ToFinancial(core.BucketOf(d.Time))
	fmt.Fprintf(cmd.OutOrStdout(), "FY%d month %d\n", fy, fm)
	return nil
}
