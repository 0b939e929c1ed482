package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tacit/wm/internal/distill"
)

var (
	distillDryRun    bool
	distillForce     bool
	distillPushToOH  bool
	distillContextID string
	distillProject   string
)

var distillCmd = &cobra.Command{
	Use:   "distill",
	Short: "Batch-extract tacit knowledge from all sessions",
	Long: `Distill processes every session transcript for the project in two
passes: Pass 1 extracts insights per session (cached by transcript
size), Pass 2 categorizes them into guardrails and metis.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return distill.Run(cmd.Context(), distill.Options{
			DryRun:    distillDryRun,
			Force:     distillForce,
			PushToOH:  distillPushToOH,
			ContextID: distillContextID,
			Project:   distillProject,
		})
	},
}

func init() {
	distillCmd.Flags().BoolVar(&distillDryRun, "dry-run", false, "preview what would be processed without extracting")
	distillCmd.Flags().BoolVar(&distillForce, "force", false, "re-extract even for cached sessions")
	distillCmd.Flags().BoolVar(&distillPushToOH, "push-to-oh", false, "push distilled candidates to Open Horizons")
	distillCmd.Flags().StringVar(&distillContextID, "context-id", "", "OH context ID (required with --push-to-oh)")
	distillCmd.Flags().StringVar(&distillProject, "project", "", "process projects matching this name instead of the current one")
	rootCmd.AddCommand(distillCmd)
}
