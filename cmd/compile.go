package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tacit/wm/internal/compile"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile the working set from distilled knowledge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return compile.Run()
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
