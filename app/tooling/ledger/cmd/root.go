// Package cmd contains the ledger client commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ardanlabs/hashchain/app/tooling/ledger/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Talk to a hash chain ledger node",
	Long:  `ledger submits transactions to a node, asks it to mine and inspects its chain.`,
}

func init() {
	rootCmd.PersistentFlags().StringP("url", "u", "http://localhost:8080", "Url of the node.")
	rootCmd.PersistentFlags().Duration("timeout", 5*time.Minute, "Time allowed for a request to complete.")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintln(os.Stderr, "binding flags:", err)
	}

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	viper.SetConfigName("ledger")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.ledger")

	viper.SetEnvPrefix("ledger")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Execute runs the root command.
func Execute() {
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func newClient() *client.Client {
	return client.New(viper.GetString("url"), viper.GetDuration("timeout"))
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(data))
	return nil
}
