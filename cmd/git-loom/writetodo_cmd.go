package main

import (
	"github.com/spf13/cobra"

	"github.com/loomkit/git-loom/internal/weave"
)

// internal-write-todo is the sequence editor side of the rebase protocol:
// git invokes it with the todo path as the final argument and it copies the
// pre-generated program over it. Nothing else belongs here.
var writeTodoCmd = &cobra.Command{
	Use:    "internal-write-todo <todo-file>",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		return weave.WriteTodo(source, args[0])
	},
}

func init() {
	writeTodoCmd.Flags().String("source", "", "Path to the pre-generated todo content")
	_ = writeTodoCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(writeTodoCmd)
}
