package main

import (
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:     "update",
	Short:   "Fetch and rebase the integration branch onto upstream",
	GroupID: GroupRemote,
	Long: `Fetch all refs and tags (force, prune), rebase the integration branch
onto its upstream with autostash, and update submodules when configured.
On conflict the rebase is aborted and the error reported.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdate(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
