package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tacit/wm/internal/state"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .wm/ in the current project",
	RunE: func(cmd *cobra.Command, args []string) error {
		if state.IsInitialized() {
			return errors.New("already initialized: .wm/ exists")
		}
		if err := state.Init(); err != nil {
			return err
		}
		fmt.Println("Initialized .wm/ in current directory")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
