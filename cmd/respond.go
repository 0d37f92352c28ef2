package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"memoex/config"
	"memoex/exchange"
	"memoex/ledger"
	"memoex/logx"
	"memoex/monitoring"
	"memoex/service"
	"memoex/wallet"
)

var respondConfig struct {
	ConfigPath       string
	Endpoint         string
	WalletPath       string
	RecordPath       string
	Tuning           string
	ResponseLamports uint64
	MinPayment       uint64
}

// respondCmd represents the provider side of a two-terminal exchange
var respondCmd = &cobra.Command{
	Use:   "respond <request-signature> <requester-address>",
	Short: "Run the provider role for one exchange",
	Long: `Observes the request transaction identified by the given signature,
verifies the attached payment against the ledger record, executes the
requested service and returns the result in a response transaction.

Examples:
  memoex respond 4vJ9...sig 5Grw...addr`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runProvider(args[0], args[1], cmd.PersistentFlags().Changed("response-amount")); err != nil {
			logx.Error("RESPOND CLI", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(respondCmd)

	respondCmd.PersistentFlags().StringVarP(&respondConfig.ConfigPath, "config", "c", "", "role config YAML file")
	respondCmd.PersistentFlags().StringVarP(&respondConfig.Endpoint, "endpoint", "u", "http://127.0.0.1:8899", "ledger RPC endpoint")
	respondCmd.PersistentFlags().StringVarP(&respondConfig.WalletPath, "wallet", "w", "wallets/provider.json", "wallet file path")
	respondCmd.PersistentFlags().StringVarP(&respondConfig.RecordPath, "record", "r", "logs/provider_exchanges.json", "exchange record log path")
	respondCmd.PersistentFlags().StringVarP(&respondConfig.Tuning, "tuning", "i", "", "tuning INI file")
	respondCmd.PersistentFlags().Uint64VarP(&respondConfig.ResponseLamports, "response-amount", "a", config.DefaultResponseLamports, "nominal response transfer in lamports")
	respondCmd.PersistentFlags().Uint64VarP(&respondConfig.MinPayment, "min-payment", "m", 1, "smallest acceptable payment in lamports")
}

func runProvider(requestSig, requesterAddr string, amountFromFlag bool) error {
	floor := uint64(config.DefaultFundingFloor)
	topUp := uint64(config.DefaultFundingTopUp)
	if respondConfig.ConfigPath != "" {
		role, err := config.LoadRoleConfig(respondConfig.ConfigPath)
		if err != nil {
			return err
		}
		applyRoleConfig(role, &respondConfig.Endpoint, &respondConfig.WalletPath, &respondConfig.RecordPath)
		// An explicit --response-amount beats the config file's value
		if !amountFromFlag {
			respondConfig.ResponseLamports = role.ResponseLamports
		}
		floor, topUp = role.FundingFloorLamports, role.FundingTopUpLamports
		if role.MetricsAddr != "" {
			monitoring.StartMetricsServer(role.MetricsAddr)
		}
	}

	w, err := wallet.CreateOrLoad(respondConfig.WalletPath)
	if err != nil {
		return err
	}

	c := ledger.NewClient(ledger.Config{
		Endpoint: respondConfig.Endpoint,
		Funding:  loadFundingTuning(respondConfig.Tuning),
		Confirm:  loadConfirmTuning(respondConfig.Tuning),
	})
	defer c.Close()

	ctx := context.Background()
	if err := exchange.EnsureFunded(ctx, c, w.Address, floor, topUp); err != nil {
		return err
	}

	opts := exchange.OptionsFromPollConfig(loadPollTuning(respondConfig.Tuning))
	opts.MinPaymentLamports = respondConfig.MinPayment

	provider := exchange.NewProvider(w, c, service.DefaultRegistry(),
		exchange.NewRecordLog(respondConfig.RecordPath), exchange.LogSink{}, exchange.Hooks{},
		opts, respondConfig.ResponseLamports)
	defer provider.Close()

	logx.Info("RESPOND CLI", "Serving: ", provider.Services())

	responseSig, err := provider.ProcessRequest(ctx, requestSig, requesterAddr)
	if err != nil {
		return err
	}
	logx.Info("RESPOND CLI", "Response submitted, hand this signature to the requester: ", responseSig)
	return nil
}
