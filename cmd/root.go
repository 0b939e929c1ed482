// Package cmd wires the wm command tree.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tacit/wm/internal/oracle"
)

var rootCmd = &cobra.Command{
	Use:           "wm",
	Short:         "Working memory for AI coding assistants",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command. When the disable flag is set in the
// environment (as it is inside oracle subprocesses) every invocation
// is a silent no-op, which breaks hook recursion.
func Execute() {
	if _, disabled := os.LookupEnv(oracle.DisableEnv); disabled {
		return
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
