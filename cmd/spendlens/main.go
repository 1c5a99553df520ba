// Command spendlens is the batch tooling for the invoice analytics backend:
// it ingests document exports, materializes the monthly aggregates and writes
// Excel spend reports.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "spendlens",
	Short: "Batch tooling for the SpendLens invoice analytics backend",
	Long: `spendlens ingests raw document exports into the invoice database,
materializes monthly aggregate metrics and exports spend reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to the configuration file")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	_ = gotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
