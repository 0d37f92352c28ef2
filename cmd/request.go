package cmd

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"memoex/config"
	"memoex/exchange"
	"memoex/ledger"
	"memoex/logx"
	"memoex/monitoring"
	"memoex/service"
	"memoex/wallet"
)

var requestConfig struct {
	ConfigPath string
	Endpoint   string
	WalletPath string
	RecordPath string
	Tuning     string
	Provider   string
	Service    string
	Input      string
	Lamports   uint64
}

// requestCmd represents the requester side of a two-terminal exchange
var requestCmd = &cobra.Command{
	Use:   "request [flags]",
	Short: "Run the requester role for one exchange",
	Long: `Pays the provider for a service request, then waits for the response
signature on stdin (hand it over from the provider's terminal), verifies the
result locally and publishes the verification proof.

Examples:
  # Request the hash of "abc" for 0.1 units
  memoex request -t <provider-address> -s hash -d abc -a 100000000

  # Endpoint, wallet and amounts from a role config file
  memoex request -c requester.yml -s hash -d abc`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRequester(cmd.PersistentFlags().Changed("amount")); err != nil {
			logx.Error("REQUEST CLI", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(requestCmd)

	requestCmd.PersistentFlags().StringVarP(&requestConfig.ConfigPath, "config", "c", "", "role config YAML file")
	requestCmd.PersistentFlags().StringVarP(&requestConfig.Endpoint, "endpoint", "u", "http://127.0.0.1:8899", "ledger RPC endpoint")
	requestCmd.PersistentFlags().StringVarP(&requestConfig.WalletPath, "wallet", "w", "wallets/requester.json", "wallet file path")
	requestCmd.PersistentFlags().StringVarP(&requestConfig.RecordPath, "record", "r", "logs/requester_exchanges.json", "exchange record log path")
	requestCmd.PersistentFlags().StringVarP(&requestConfig.Tuning, "tuning", "i", "", "tuning INI file")
	requestCmd.PersistentFlags().StringVarP(&requestConfig.Provider, "provider", "t", "", "provider address")
	requestCmd.PersistentFlags().StringVarP(&requestConfig.Service, "service", "s", "hash", "service type to request")
	requestCmd.PersistentFlags().StringVarP(&requestConfig.Input, "input", "d", "", "service input payload")
	requestCmd.PersistentFlags().Uint64VarP(&requestConfig.Lamports, "amount", "a", config.DefaultPaymentLamports, "payment in lamports")
}

func runRequester(amountFromFlag bool) error {
	floor := uint64(config.DefaultFundingFloor)
	topUp := uint64(config.DefaultFundingTopUp)
	if requestConfig.ConfigPath != "" {
		role, err := config.LoadRoleConfig(requestConfig.ConfigPath)
		if err != nil {
			return err
		}
		applyRoleConfig(role, &requestConfig.Endpoint, &requestConfig.WalletPath, &requestConfig.RecordPath)
		if requestConfig.Provider == "" {
			requestConfig.Provider = role.Counterparty
		}
		// An --amount given explicitly beats the config file's payment
		if !amountFromFlag {
			requestConfig.Lamports = role.PaymentLamports
		}
		floor, topUp = role.FundingFloorLamports, role.FundingTopUpLamports
		if role.MetricsAddr != "" {
			monitoring.StartMetricsServer(role.MetricsAddr)
		}
	}

	w, err := wallet.CreateOrLoad(requestConfig.WalletPath)
	if err != nil {
		return err
	}

	c := ledger.NewClient(ledger.Config{
		Endpoint: requestConfig.Endpoint,
		Funding:  loadFundingTuning(requestConfig.Tuning),
		Confirm:  loadConfirmTuning(requestConfig.Tuning),
	})
	defer c.Close()

	ctx := context.Background()
	if err := exchange.EnsureFunded(ctx, c, w.Address, floor, topUp); err != nil {
		return err
	}

	requester := exchange.NewRequester(w, c, service.DefaultRegistry(),
		exchange.NewRecordLog(requestConfig.RecordPath), exchange.LogSink{}, exchange.Hooks{},
		exchange.OptionsFromPollConfig(loadPollTuning(requestConfig.Tuning)))
	defer requester.Close()

	reqSig, err := requester.RequestService(ctx, requestConfig.Provider,
		requestConfig.Service, requestConfig.Input, requestConfig.Lamports)
	if err != nil {
		return err
	}
	logx.Info("REQUEST CLI", "Request submitted, hand this signature to the provider: ", reqSig)

	logx.Info("REQUEST CLI", "Paste the provider's response signature and press enter:")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return scanner.Err()
	}
	responseSig := strings.TrimSpace(scanner.Text())

	verified, err := requester.AwaitAndVerify(ctx, responseSig)
	if err != nil {
		return err
	}
	proofSig, err := requester.PublishProof(ctx, responseSig, verified)
	if err != nil {
		return err
	}

	logx.Info("REQUEST CLI", "Verification result: ", verified, ", proof published: ", proofSig)
	return nil
}

// applyRoleConfig overlays non-empty role config values onto the flag targets.
func applyRoleConfig(role *config.RoleConfig, endpoint, walletPath, recordPath *string) {
	if role.RPCEndpoint != "" {
		*endpoint = role.RPCEndpoint
	}
	if role.WalletPath != "" {
		*walletPath = role.WalletPath
	}
	if role.RecordPath != "" {
		*recordPath = role.RecordPath
	}
}
