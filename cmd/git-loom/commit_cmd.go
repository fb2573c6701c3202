package main

import (
	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:     "commit [files...]",
	Short:   "Commit onto a feature branch without leaving integration",
	GroupID: GroupCore,
	Long: `Create a commit on a feature branch while staying on the integration
branch: the commit is created at HEAD and relocated onto the target branch
through one atomic rebase.

Files may be paths, short IDs, or the reserved token "zz" to stage every
change. Without -b and with a clean integration line, the commit lands
directly on integration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		branch, _ := cmd.Flags().GetString("branch")
		var message *string
		if cmd.Flags().Changed("message") {
			m, _ := cmd.Flags().GetString("message")
			message = &m
		}
		return runCommit(cmd.Context(), branch, message, args)
	},
}

func init() {
	commitCmd.Flags().StringP("branch", "b", "", "Target feature branch (name or short ID)")
	commitCmd.Flags().StringP("message", "m", "", "Commit message (opens the editor when omitted)")
	rootCmd.AddCommand(commitCmd)
}
