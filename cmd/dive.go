package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tacit/wm/internal/oh"
)

var diveCmd = &cobra.Command{
	Use:   "dive",
	Short: "Manage Open Horizons dive pack context",
}

var diveLoadCmd = &cobra.Command{
	Use:   "load <pack-id>",
	Short: "Load a dive pack into the project context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return oh.LoadDivePack(cmd.Context(), args[0])
	},
}

var diveClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the current dive context",
	RunE: func(cmd *cobra.Command, args []string) error {
		return oh.ClearDiveContext()
	},
}

var diveShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current dive context",
	RunE: func(cmd *cobra.Command, args []string) error {
		return oh.ShowDiveContext()
	},
}

func init() {
	diveCmd.AddCommand(diveLoadCmd, diveClearCmd, diveShowCmd)
	rootCmd.AddCommand(diveCmd)
}
