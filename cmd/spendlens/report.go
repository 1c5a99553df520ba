package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spendlens/spendlens/internal/analytics"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Materialize the monthly aggregate metrics",
	Long: `Report walks the trailing twelve calendar months and writes monthly
spend, invoice count and average invoice value metrics. Rerunning is safe;
existing month buckets are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		reporter := analytics.NewReporter(a.db, a.invoices, a.analytics, a.logger)
		if err := reporter.Run(); err != nil {
			return err
		}
		fmt.Println("Monthly aggregates refreshed")
		return nil
	},
}
