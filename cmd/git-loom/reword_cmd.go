package main

import (
	"github.com/spf13/cobra"
)

var rewordCmd = &cobra.Command{
	Use:     "reword <target>",
	Short:   "Reword a commit message or rename a branch",
	GroupID: GroupHistory,
	Long: `Reword a commit message or rename a branch.

Commits are rewritten in place through one interactive rebase; the rest of
the topology is preserved. Works without an upstream too (plain linear
history).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")
		return runReword(cmd.Context(), args[0], message, cmd.Flags().Changed("message"))
	},
}

func init() {
	rewordCmd.Flags().StringP("message", "m", "", "New message or branch name (when omitted: the editor for a commit, a prompt for a branch)")
	rootCmd.AddCommand(rewordCmd)
}
