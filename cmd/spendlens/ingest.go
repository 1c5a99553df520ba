package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spendlens/spendlens/internal/analytics"
	"github.com/spendlens/spendlens/internal/ingest"
)

var skipReport bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <export-file>",
	Short: "Rebuild the invoice database from a document export file",
	Long: `Ingest reads a JSON document export, clears all derived tables and
rebuilds vendors, customers, invoices, line items, payments and documents
from the extracted data. Afterwards the monthly aggregates are refreshed
unless --skip-report is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		runner := ingest.NewRunner(
			a.db, a.vendors, a.customers, a.invoices,
			a.lineItems, a.payments, a.documents, a.analytics, a.logger,
		)
		result, err := runner.Run(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Processed %d records (%d errors)\n", result.Processed, result.Errors)
		fmt.Printf("Created %d vendors, %d customers\n", result.VendorsCreated, result.CustomersCreated)

		if skipReport {
			return nil
		}
		reporter := analytics.NewReporter(a.db, a.invoices, a.analytics, a.logger)
		if err := reporter.Run(); err != nil {
			return fmt.Errorf("ingestion succeeded but aggregation failed: %w", err)
		}
		fmt.Println("Monthly aggregates refreshed")
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&skipReport, "skip-report", false, "skip refreshing the monthly aggregates")
}
