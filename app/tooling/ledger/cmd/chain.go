package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print every block in the node's chain.",
	RunE: func(cmd *cobra.Command, args []string) error {
		chain, err := newClient().Chain(cmd.Context())
		if err != nil {
			return err
		}

		return printJSON(chain)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Ask the node to validate its chain.",
	RunE: func(cmd *cobra.Command, args []string) error {
		val, err := newClient().Validate(cmd.Context())
		if err != nil {
			return err
		}

		if val.Valid {
			fmt.Printf("chain is valid: blocks[%d]\n", val.Blocks)
			return nil
		}

		for _, v := range val.Violations {
			fmt.Printf("blk[%d]: %s\n", v.Index, v.Reason)
		}

		return fmt.Errorf("chain is invalid: violations[%d]", len(val.Violations))
	},
}

var mempoolCmd = &cobra.Command{
	Use:   "mempool",
	Short: "Print the transactions waiting to be mined.",
	RunE: func(cmd *cobra.Command, args []string) error {
		mp, err := newClient().Mempool(cmd.Context())
		if err != nil {
			return err
		}

		return printJSON(mp)
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(mempoolCmd)
}
