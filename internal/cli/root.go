// Package cli provides the command-line interface for steplab.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "steplab",
		Short: "steplab - STEP face naming tool",
		Long: `steplab indexes the ADVANCED_FACE entities of a STEP file, serves an
HTTP API for inspecting face metadata and the render mesh, and writes
feature-name assignments back into the file as a byte-faithful export.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: steplab.yaml in the working directory)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newApplyCmd())

	return rootCmd
}

// Execute runs the root command and exits nonzero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}
