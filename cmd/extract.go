package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tacit/wm/internal/extract"
)

var (
	extractTranscript string
	extractSessionID  string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run incremental extraction from a transcript",
	RunE: func(cmd *cobra.Command, args []string) error {
		return extract.Run(cmd.Context(), extract.Options{
			TranscriptPath: extractTranscript,
			SessionID:      extractSessionID,
		})
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractTranscript, "transcript", "", "path to transcript file")
	extractCmd.Flags().StringVar(&extractSessionID, "session-id", "", "session ID for session-scoped extraction")
	rootCmd.AddCommand(extractCmd)
}
