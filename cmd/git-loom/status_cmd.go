package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status [N]",
	Short:   "Show the branch-aware status",
	GroupID: GroupCore,
	Long: `Show the integration branch as a graph: working tree changes, woven and
loose commits grouped by feature branch, and the upstream marker.

Every entity carries a short ID usable as a target in other commands.
An optional N shows that many context commits before the common base.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := statusOptions{}
		opts.withFiles, _ = cmd.Flags().GetBool("files")
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				return cmd.Help()
			}
			opts.contextN = n
		}
		return runStatus(cmd.Context(), opts)
	},
}

func init() {
	statusCmd.Flags().BoolP("files", "f", false, "List the changed files of every commit")
	rootCmd.AddCommand(statusCmd)
}
