package main

import (
	"github.com/spf13/cobra"
)

var foldCmd = &cobra.Command{
	Use:     "fold <source>... <target>",
	Short:   "Fold sources into a target (amend, fixup, move, uncommit)",
	GroupID: GroupHistory,
	Long: `Fold source(s) into a target. The last argument is the target.

  fold x.go ab        amend file x.go into commit ab
  fold ab cd          squash commit ab into commit cd
  fold ab fx          move commit ab onto branch fx
  fold ab zz          uncommit ab into the working tree
  fold ab:0 cd        move the first file of ab into cd
  fold ab:0 zz        uncommit the first file of ab`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFold(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(foldCmd)
}
