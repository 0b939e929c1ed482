package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tacit/wm/internal/compile"
	"github.com/tacit/wm/internal/extract"
)

var hookCompileSessionID string

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Hook entry points (called by assistant hooks)",
}

// Hook invocations must never surface errors into the assistant
// session: both subcommands swallow failures after logging.
var hookCompileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Prompt-submit hook: emit working set as hook JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = compile.RunHook(hookCompileSessionID, os.Stdin, os.Stdout)
		return nil
	},
}

var hookExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Background extraction hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = extract.RunHook(cmd.Context())
		return nil
	},
}

func init() {
	hookCompileCmd.Flags().StringVar(&hookCompileSessionID, "session-id", "", "session ID for session-scoped output")
	_ = hookCompileCmd.MarkFlagRequired("session-id")
	hookCmd.AddCommand(hookCompileCmd, hookExtractCmd)
	rootCmd.AddCommand(hookCmd)
}
