package main

import (
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init [name]",
	Short:   "Initialize an integration branch tracking a remote",
	GroupID: GroupCore,
	Long: `Create an integration branch at the upstream tip and switch to it.

The upstream is auto-detected from the current branch's tracking ref or the
remotes' default branches; with multiple candidates a picker is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		return runInit(cmd.Context(), name)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
