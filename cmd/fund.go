package cmd

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"memoex/ledger"
	"memoex/logx"
)

var fundingConfig struct {
	Endpoint string
	Tuning   string
}

// fundCmd represents the fund command
var fundCmd = &cobra.Command{
	Use:   "fund <address> <lamports>",
	Short: "Request a faucet airdrop for an address",
	Long: `Requests an airdrop from the ledger's faucet and waits for it to confirm,
retrying with exponential backoff when the faucet is unavailable.

Examples:
  # Fund an address with 2 units
  memoex fund 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY 2_000_000_000`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		lamports, err := strconv.ParseUint(strings.ReplaceAll(args[1], "_", ""), 10, 64)
		if err != nil {
			logx.Error("FUND CLI", "could not parse lamport amount: ", err)
			return
		}

		c := ledger.NewClient(ledger.Config{
			Endpoint: fundingConfig.Endpoint,
			Funding:  loadFundingTuning(fundingConfig.Tuning),
		})
		defer c.Close()

		if err := c.Fund(context.Background(), args[0], lamports); err != nil {
			logx.Error("FUND CLI", err)
			return
		}
		logx.Info("FUND CLI", "Funded ", args[0], " with ", lamports, " lamports")
	},
}

func init() {
	rootCmd.AddCommand(fundCmd)

	fundCmd.PersistentFlags().StringVarP(&fundingConfig.Endpoint, "endpoint", "u", "http://127.0.0.1:8899", "ledger RPC endpoint")
	fundCmd.PersistentFlags().StringVarP(&fundingConfig.Tuning, "tuning", "i", "", "tuning INI file with a [funding] section")
}
