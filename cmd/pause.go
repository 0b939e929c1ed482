package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tacit/wm/internal/state"
)

var pauseCmd = &cobra.Command{
	Use:   "pause <extract|compile>",
	Short: "Pause an automatic operation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setOperation(args[0], false)
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <extract|compile>",
	Short: "Resume a paused operation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setOperation(args[0], true)
	},
}

func setOperation(name string, enabled bool) error {
	if !state.IsInitialized() {
		return errors.New("not initialized; run 'wm init' first")
	}
	cfg := state.ReadConfig()
	switch name {
	case "extract":
		cfg.Operations.Extract = enabled
	case "compile":
		cfg.Operations.Compile = enabled
	default:
		return fmt.Errorf("unknown operation: %s (use: extract, compile)", name)
	}
	if err := state.WriteConfig(cfg); err != nil {
		return err
	}
	verb := "paused"
	if enabled {
		verb = "resumed"
	}
	fmt.Printf("%s %s\n", name, verb)
	return nil
}

func init() {
	rootCmd.AddCommand(pauseCmd, resumeCmd)
}
