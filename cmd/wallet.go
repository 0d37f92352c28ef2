package cmd

import (
	"github.com/spf13/cobra"

	"memoex/logx"
	"memoex/wallet"
)

// walletCmd represents the wallet command
var walletCmd = &cobra.Command{
	Use:   "wallet <path>",
	Short: "Create or inspect a wallet file",
	Long: `Loads the wallet persisted at the given path, generating and saving a new
keypair when the file does not exist, and prints its address.

Examples:
  # Create or load the requester wallet
  memoex wallet wallets/requester.json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		w, err := wallet.CreateOrLoad(args[0])
		if err != nil {
			logx.Error("WALLET CLI", err)
			return
		}
		logx.Info("WALLET CLI", "Address: ", w.Address)
	},
}

func init() {
	rootCmd.AddCommand(walletCmd)
}
