package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tacit/wm/internal/compress"
)

var compressCmd = &cobra.Command{
	Use:   "compress",
	Short: "Synthesize state.md into a more concise form",
	RunE: func(cmd *cobra.Command, args []string) error {
		return compress.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(compressCmd)
}
