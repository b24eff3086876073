package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask the node to mine its pending transactions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("mining..."),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					bar.Add(1)
				case <-done:
					return
				}
			}
		}()

		res, err := newClient().Mine(cmd.Context())
		close(done)
		bar.Finish()

		if err != nil {
			return err
		}

		if res.Index == nil {
			fmt.Println(res.Status)
			return nil
		}

		fmt.Printf("%s: index[%d]\n", res.Status, *res.Index)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)
}
