package main

import (
	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:     "push [branch]",
	Short:   "Push a feature branch to its remote",
	GroupID: GroupRemote,
	Long: `Push a woven feature branch. The remote type decides the strategy:

  plain    force-with-lease push with upstream tracking
  github   push and print the pull-request URL (copied to the clipboard)
  gerrit   push to refs/for/<target> with the branch as topic

Detection uses the git config key loom.remote-type, the config file, the
remote URL and the commit-msg hook, in that order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		branch := ""
		if len(args) == 1 {
			branch = args[0]
		}
		return runPush(cmd.Context(), branch)
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
}
