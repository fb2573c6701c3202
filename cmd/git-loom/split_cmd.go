package main

import (
	"github.com/spf13/cobra"
)

var splitCmd = &cobra.Command{
	Use:     "split <target>",
	Short:   "Split a commit into two sequential commits",
	GroupID: GroupHistory,
	Long: `Split a commit in two. A file picker selects the files for the first
commit; it gets the given message, the second commit keeps the original
message. Works anywhere in the integration range.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")
		return runSplit(cmd.Context(), args[0], message, cmd.Flags().Changed("message"))
	},
}

func init() {
	splitCmd.Flags().StringP("message", "m", "", "Message for the first commit (prompts when omitted)")
	rootCmd.AddCommand(splitCmd)
}
