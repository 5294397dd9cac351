// Package cmd defines and implements the CLI commands for the covidetl
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "covidetl",
		Short: "Batch ETL for the Massachusetts COVID-19 public health reports.",
		Long: `covidetl scrapes the state health-department landing page, downloads the
published Word, PDF, and Excel artifacts, normalizes the tables they carry,
writes failsafe CSVs, and loads the results into a warehouse.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; environment variables and defaults otherwise)")

	cmd.AddCommand(newRunCmd())

	return cmd
}

// Execute is the main entry point.
func Execute(ctx context.Context) {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
