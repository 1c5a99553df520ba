package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spendlens/spendlens/internal/analytics"
	"github.com/spendlens/spendlens/internal/export"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the spend report workbook",
	Long: `Export writes an Excel workbook with a summary sheet (headline stats
and top vendors) and the full invoice list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		service := analytics.NewService(a.invoices, a.documents, a.logger)
		writer := export.NewReportWriter(service, a.invoices, a.logger)
		if err := writer.Write(exportOutput); err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "spend-report.xlsx", "output file path")
}
