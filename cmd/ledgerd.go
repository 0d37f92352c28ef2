package cmd

import (
	"github.com/spf13/cobra"

	"memoex/logx"
	"memoex/memledger"
)

var ledgerListenAddr string

// ledgerCmd represents the ledger command
var ledgerCmd = &cobra.Command{
	Use:   "ledger [flags]",
	Short: "Serve the in-process ledger emulator over HTTP",
	Long: `Runs the ledger emulator as a standalone JSON-RPC endpoint, useful for
exercising the two-terminal request/respond flow without a live network.`,
	Run: func(cmd *cobra.Command, args []string) {
		logx.Info("LEDGER CLI", "Emulator listening on ", ledgerListenAddr)
		if err := memledger.New().Serve(ledgerListenAddr); err != nil {
			logx.Error("LEDGER CLI", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(ledgerCmd)

	ledgerCmd.PersistentFlags().StringVarP(&ledgerListenAddr, "listen", "l", "127.0.0.1:8899", "listen address")
}
