package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"memoex/events"
	"memoex/exception"
	"memoex/exchange"
	"memoex/ledger"
	"memoex/logx"
	"memoex/memledger"
	"memoex/monitoring"
	"memoex/service"
	"memoex/wallet"
)

var demoConfig struct {
	Endpoint    string
	Simulated   bool
	Service     string
	Input       string
	Lamports    uint64
	MetricsAddr string
	Tamper      bool
}

// demoCmd represents the demo command
var demoCmd = &cobra.Command{
	Use:   "demo [flags]",
	Short: "Run a full exchange with both roles in one process",
	Long: `Runs the requester and provider against one ledger endpoint, passing the
transaction signatures directly between them, and reports the verification
verdict. With --simulated an in-process ledger emulator is used instead of a
live endpoint.

Examples:
  # Self-contained run against the emulator
  memoex demo --simulated

  # Against a running endpoint, with a provider that cheats
  memoex demo -u http://127.0.0.1:8899 --tamper`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDemo(); err != nil {
			logx.Error("DEMO CLI", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.PersistentFlags().StringVarP(&demoConfig.Endpoint, "endpoint", "u", "http://127.0.0.1:8899", "ledger RPC endpoint")
	demoCmd.PersistentFlags().BoolVar(&demoConfig.Simulated, "simulated", false, "run against an in-process ledger emulator")
	demoCmd.PersistentFlags().StringVarP(&demoConfig.Service, "service", "s", "hash", "service type to exchange")
	demoCmd.PersistentFlags().StringVarP(&demoConfig.Input, "input", "d", "hello_solana_hackathon", "service input payload")
	demoCmd.PersistentFlags().Uint64VarP(&demoConfig.Lamports, "amount", "a", 100_000_000, "payment in lamports")
	demoCmd.PersistentFlags().StringVar(&demoConfig.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	demoCmd.PersistentFlags().BoolVar(&demoConfig.Tamper, "tamper", false, "make the provider return a wrong result")
}

func runDemo() error {
	endpoint := demoConfig.Endpoint
	if demoConfig.Simulated {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return err
		}
		emulator := memledger.New()
		exception.SafeGo("demo-emulator", func() {
			http.Serve(ln, emulator.Handler())
		})
		endpoint = "http://" + ln.Addr().String()
		logx.Info("DEMO CLI", "Simulated ledger listening on ", endpoint)
	}
	if demoConfig.MetricsAddr != "" {
		monitoring.StartMetricsServer(demoConfig.MetricsAddr)
	}

	c := ledger.NewClient(ledger.Config{Endpoint: endpoint})
	defer c.Close()

	requesterWallet, err := wallet.New()
	if err != nil {
		return err
	}
	providerWallet, err := wallet.New()
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, addr := range []string{requesterWallet.Address, providerWallet.Address} {
		if err := exchange.EnsureFunded(ctx, c, addr, demoConfig.Lamports*2, demoConfig.Lamports*10); err != nil {
			return err
		}
	}

	providerRegistry := service.DefaultRegistry()
	if demoConfig.Tamper {
		providerRegistry.Register("hash", func(input string) (string, error) {
			digest, err := service.HashService(input)
			if err != nil {
				return "", err
			}
			return digest[:len(digest)-1] + "0", nil
		})
	}

	// Both roles publish progress onto one bus; a subscriber streams it to
	// the log so the two state machines interleave visibly.
	bus := events.NewBus()
	subID, eventCh := bus.Subscribe()
	defer bus.Unsubscribe(subID)
	exception.SafeGo("demo-events", func() {
		for e := range eventCh {
			logx.Info("DEMO CLI", fmt.Sprintf("%s %s: %s", e.Role, e.Phase, e.Message))
		}
	})

	requester := exchange.NewRequester(requesterWallet, c, service.DefaultRegistry(),
		exchange.NewRecordLog(""), bus, exchange.Hooks{}, exchange.Options{})
	provider := exchange.NewProvider(providerWallet, c, providerRegistry,
		exchange.NewRecordLog(""), bus, exchange.Hooks{}, exchange.Options{}, 1_000_000)

	reqSig, err := requester.RequestService(ctx, providerWallet.Address,
		demoConfig.Service, demoConfig.Input, demoConfig.Lamports)
	if err != nil {
		return err
	}

	responseSig, err := provider.ProcessRequest(ctx, reqSig, requesterWallet.Address)
	if err != nil {
		return err
	}

	verified, err := requester.AwaitAndVerify(ctx, responseSig)
	if err != nil {
		return err
	}
	proofSig, err := requester.PublishProof(ctx, responseSig, verified)
	if err != nil {
		return err
	}

	logx.Info("DEMO CLI", "Exchange complete. Verified: ", verified, ", proof tx: ", proofSig)
	return nil
}
