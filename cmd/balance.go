package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"memoex/ledger"
	"memoex/logx"
)

var balanceEndpoint string

// balanceCmd represents the balance command
var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Query the confirmed balance of an address",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := ledger.NewClient(ledger.Config{Endpoint: balanceEndpoint})
		defer c.Close()

		lamports, err := c.GetBalance(context.Background(), args[0])
		if err != nil {
			logx.Error("BALANCE CLI", err)
			return
		}
		logx.Info("BALANCE CLI", fmt.Sprintf("%s holds %d lamports (%.9f units)",
			args[0], lamports, float64(lamports)/float64(ledger.LamportsPerUnit)))
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.PersistentFlags().StringVarP(&balanceEndpoint, "endpoint", "u", "http://127.0.0.1:8899", "ledger RPC endpoint")
}
