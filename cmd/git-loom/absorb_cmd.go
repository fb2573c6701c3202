package main

import (
	"github.com/spf13/cobra"
)

var absorbCmd = &cobra.Command{
	Use:     "absorb [files...]",
	Short:   "Send working tree changes back into the commits they belong to",
	GroupID: GroupHistory,
	Long: `For each changed tracked file, trace the touched lines back (via blame)
to the commit that introduced them. Files whose lines all come from one
in-scope commit are folded into it; the rest are skipped with a reason.

All absorptions replay as one atomic rebase. Use -n to preview.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return runAbsorb(cmd.Context(), dryRun, args)
	},
}

func init() {
	absorbCmd.Flags().BoolP("dry-run", "n", false, "Report the plan without changing anything")
	rootCmd.AddCommand(absorbCmd)
}
