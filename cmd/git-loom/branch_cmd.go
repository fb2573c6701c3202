package main

import (
	"github.com/spf13/cobra"
)

var branchCmd = &cobra.Command{
	Use:     "branch [name]",
	Short:   "Create a feature branch, weaving it if needed",
	GroupID: GroupCore,
	Long: `Create a feature branch at a target commit (default: the common base).

When the target is a commit in the middle of the integration line, the
history is rewoven so the branch's commits move behind a merge commit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		target, _ := cmd.Flags().GetString("target")
		return runBranch(cmd.Context(), name, target)
	},
}

func init() {
	branchCmd.Flags().StringP("target", "t", "", "Target commit, branch or short ID (defaults to the common base)")
	rootCmd.AddCommand(branchCmd)
}
