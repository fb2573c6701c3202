package main

import (
	"github.com/spf13/cobra"
)

var dropCmd = &cobra.Command{
	Use:     "drop <target>",
	Short:   "Drop a commit or a branch from history",
	GroupID: GroupHistory,
	Long: `Remove a commit or a whole branch from the integration history.

Dropping a woven branch also unweaves its merge topology; dropping the last
commit of a branch drops the branch. Asks for confirmation unless -y.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return runDrop(cmd.Context(), args[0], yes)
	},
}

func init() {
	dropCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(dropCmd)
}
