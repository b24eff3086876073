package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit TX [TX...]",
	Short: "Add transactions to the node's mempool.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, err := newClient().Submit(cmd.Context(), args)
		if err != nil {
			return err
		}

		fmt.Printf("%s: pending[%d]\n", sub.Status, sub.Pending)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
}
