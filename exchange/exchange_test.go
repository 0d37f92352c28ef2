package exchange_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"memoex/config"
	"memoex/errors"
	"memoex/exchange"
	"memoex/jsonx"
	"memoex/ledger"
	"memoex/memledger"
	"memoex/memo"
	"memoex/service"
	"memoex/wallet"
)

const abcDigest = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

type fixture struct {
	ledger    *memledger.Ledger
	client    *ledger.Client
	requester *wallet.Wallet
	provider  *wallet.Wallet
}

func fastOpts() exchange.Options {
	return exchange.Options{
		PollMaxAttempts: 5,
		PollDelay:       5 * time.Millisecond,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ml := memledger.New()
	srv := httptest.NewServer(ml.Handler())
	t.Cleanup(srv.Close)

	c := ledger.NewClient(ledger.Config{
		Endpoint: srv.URL,
		Confirm:  config.ConfirmConfig{TimeoutMs: 2000, PollIntervalMs: 5},
	})
	t.Cleanup(func() { c.Close() })

	req, err := wallet.New()
	require.NoError(t, err)
	prov, err := wallet.New()
	require.NoError(t, err)
	ml.Credit(req.Address, 2*ledger.LamportsPerUnit)
	ml.Credit(prov.Address, ledger.LamportsPerUnit)

	return &fixture{ledger: ml, client: c, requester: req, provider: prov}
}

// Full happy path: REQUEST paid, service executed, RESPONSE verified,
// PROOF(verified) published, and both audit logs carry the right entries.
func TestExchangeEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reqLog := exchange.NewRecordLog("")
	provLog := exchange.NewRecordLog("")

	requester := exchange.NewRequester(f.requester, f.client, service.DefaultRegistry(),
		reqLog, exchange.NopSink{}, exchange.Hooks{}, fastOpts())
	provider := exchange.NewProvider(f.provider, f.client, service.DefaultRegistry(),
		provLog, exchange.NopSink{}, exchange.Hooks{}, fastOpts(), 1_000_000)

	reqSig, err := requester.RequestService(ctx, f.provider.Address, "hash", "abc", 100_000_000)
	require.NoError(t, err)
	require.Equal(t, exchange.StateAwaitingResponse, requester.State())

	respSig, err := provider.ProcessRequest(ctx, reqSig, f.requester.Address)
	require.NoError(t, err)
	require.Equal(t, exchange.StateResponseSent, provider.State())

	// The response memo carries the digest of "abc"
	text, ok := f.client.FetchMemo(ctx, respSig)
	require.True(t, ok)
	msg, ok := memo.Decode(text)
	require.True(t, ok)
	require.Equal(t, memo.TagResponse, msg.Tag)
	require.Equal(t, abcDigest, msg.Payload())

	verified, err := requester.AwaitAndVerify(ctx, respSig)
	require.NoError(t, err)
	require.True(t, verified)

	proofSig, err := requester.PublishProof(ctx, respSig, verified)
	require.NoError(t, err)
	require.Equal(t, exchange.StateProofPublished, requester.State())

	proofText, ok := f.client.FetchMemo(ctx, proofSig)
	require.True(t, ok)
	proofMsg, ok := memo.Decode(proofText)
	require.True(t, ok)
	require.Equal(t, memo.TagProof, proofMsg.Tag)
	require.Equal(t, memo.StatusVerified, proofMsg.Status())
	require.Equal(t, respSig, proofMsg.ReferenceSignature())

	// Requester log: request + proof. Provider log: one execution.
	reqRecords := reqLog.Records()
	require.Len(t, reqRecords, 2)
	require.Equal(t, exchange.RecordServiceRequest, reqRecords[0].Type)
	require.Equal(t, exchange.RecordVerificationProof, reqRecords[1].Type)

	provRecords := provLog.Records()
	require.Len(t, provRecords, 1)
	require.Equal(t, exchange.RecordServiceExecution, provRecords[0].Type)
	require.Equal(t, f.requester.Address, provRecords[0].Counterparty)

	// Payment moved: provider gained the payment minus its response transfer
	require.Equal(t, uint64(ledger.LamportsPerUnit+100_000_000-1_000_000),
		f.ledger.Balance(f.provider.Address))
}

// A tampered provider result must yield PROOF(failed) without any error
// escaping the orchestrator.
func TestExchangeVerificationFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tampered := service.NewRegistry()
	tampered.Register("hash", func(input string) (string, error) {
		return "0000000000000000000000000000000000000000000000000000000000000000", nil
	})

	requester := exchange.NewRequester(f.requester, f.client, service.DefaultRegistry(),
		exchange.NewRecordLog(""), exchange.NopSink{}, exchange.Hooks{}, fastOpts())
	provider := exchange.NewProvider(f.provider, f.client, tampered,
		exchange.NewRecordLog(""), exchange.NopSink{}, exchange.Hooks{}, fastOpts(), 1_000_000)

	reqSig, err := requester.RequestService(ctx, f.provider.Address, "hash", "abc", 100_000_000)
	require.NoError(t, err)
	respSig, err := provider.ProcessRequest(ctx, reqSig, f.requester.Address)
	require.NoError(t, err)

	verified, err := requester.AwaitAndVerify(ctx, respSig)
	require.NoError(t, err)
	require.False(t, verified)

	proofSig, err := requester.PublishProof(ctx, respSig, verified)
	require.NoError(t, err)

	proofText, ok := f.client.FetchMemo(ctx, proofSig)
	require.True(t, ok)
	proofMsg, ok := memo.Decode(proofText)
	require.True(t, ok)
	require.Equal(t, memo.StatusFailed, proofMsg.Status())
}

// A response claiming a different service type than the one requested is a
// failed verification, not an error: the claimed type must not pick the
// local function, and the failed PROOF still gets published.
func TestResponseWithForeignServiceTypeFailsVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	requester := exchange.NewRequester(f.requester, f.client, service.DefaultRegistry(),
		exchange.NewRecordLog(""), exchange.NopSink{}, exchange.Hooks{}, fastOpts())

	_, err := requester.RequestService(ctx, f.provider.Address, "hash", "abc", 100_000_000)
	require.NoError(t, err)

	// The provider answers with a memo for a service that was never asked for
	respSig, err := f.client.SubmitTransfer(ctx, f.provider, f.requester.Address,
		1_000_000, "RESPONSE:translate:bogus")
	require.NoError(t, err)

	verified, err := requester.AwaitAndVerify(ctx, respSig)
	require.NoError(t, err)
	require.False(t, verified)

	proofSig, err := requester.PublishProof(ctx, respSig, verified)
	require.NoError(t, err)

	proofText, ok := f.client.FetchMemo(ctx, proofSig)
	require.True(t, ok)
	proofMsg, ok := memo.Decode(proofText)
	require.True(t, ok)
	require.Equal(t, memo.StatusFailed, proofMsg.Status())
}

// A confirmation that never arrives must surface ConfirmationTimeout and
// leave no exchange-log entry for the attempt.
func TestRequestConfirmationTimeoutLeavesNoRecord(t *testing.T) {
	f := newFixture(t)
	f.ledger.HoldConfirmations = true

	srv := httptest.NewServer(f.ledger.Handler())
	defer srv.Close()
	c := ledger.NewClient(ledger.Config{
		Endpoint: srv.URL,
		Confirm:  config.ConfirmConfig{TimeoutMs: 100, PollIntervalMs: 10},
	})
	defer c.Close()

	log := exchange.NewRecordLog("")
	requester := exchange.NewRequester(f.requester, c, service.DefaultRegistry(),
		log, exchange.NopSink{}, exchange.Hooks{}, fastOpts())

	_, err := requester.RequestService(context.Background(), f.provider.Address, "hash", "abc", 100_000_000)
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.ErrCodeConfirmationTimeout))
	require.Empty(t, log.Records())
	require.Equal(t, exchange.StateIdle, requester.State())
}

// The provider rejects a request whose ledger-recorded payment goes to
// someone else, regardless of what the memo claims.
func TestProviderRejectsMisdirectedPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bystander, err := wallet.New()
	require.NoError(t, err)

	// Requester pays the bystander but hands the signature to our provider
	requester := exchange.NewRequester(f.requester, f.client, service.DefaultRegistry(),
		exchange.NewRecordLog(""), exchange.NopSink{}, exchange.Hooks{}, fastOpts())
	reqSig, err := requester.RequestService(ctx, bystander.Address, "hash", "abc", 100_000_000)
	require.NoError(t, err)

	provider := exchange.NewProvider(f.provider, f.client, service.DefaultRegistry(),
		exchange.NewRecordLog(""), exchange.NopSink{}, exchange.Hooks{}, fastOpts(), 1_000_000)
	_, err = provider.ProcessRequest(ctx, reqSig, f.requester.Address)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not this provider")
	require.Equal(t, exchange.StateIdle, provider.State())
}

// An unknown service type is a fatal configuration error for the provider.
func TestProviderUnknownServiceType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	requester := exchange.NewRequester(f.requester, f.client, service.DefaultRegistry(),
		exchange.NewRecordLog(""), exchange.NopSink{}, exchange.Hooks{}, fastOpts())
	// The requester-side registry does not gate what it asks for
	reqSig, err := requester.RequestService(ctx, f.provider.Address, "translate", "bonjour", 100_000_000)
	require.NoError(t, err)

	provider := exchange.NewProvider(f.provider, f.client, service.DefaultRegistry(),
		exchange.NewRecordLog(""), exchange.NopSink{}, exchange.Hooks{}, fastOpts(), 1_000_000)
	_, err = provider.ProcessRequest(ctx, reqSig, f.requester.Address)
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.ErrCodeUnknownService))
}

// The risk hook gates the request phase before anything touches the ledger.
func TestRiskHookGatesRequest(t *testing.T) {
	f := newFixture(t)

	hooks := exchange.Hooks{
		RiskScore: func(counterparty string) (float64, bool) { return 0.99, true },
	}
	log := exchange.NewRecordLog("")
	requester := exchange.NewRequester(f.requester, f.client, service.DefaultRegistry(),
		log, exchange.NopSink{}, hooks, fastOpts())

	_, err := requester.RequestService(context.Background(), f.provider.Address, "hash", "abc", 100_000_000)
	require.Error(t, err)
	require.Contains(t, err.Error(), "risk")
	require.Empty(t, log.Records())
	require.Equal(t, exchange.StateIdle, requester.State())
}

// The shield hook may reroute the transfer; the ledger record reflects the
// rewritten recipient.
func TestShieldHookRewritesTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	relay, err := wallet.New()
	require.NoError(t, err)
	hooks := exchange.Hooks{
		ShieldTransfer: func(recipient string, lamports uint64) (string, uint64) {
			return relay.Address, lamports
		},
	}
	requester := exchange.NewRequester(f.requester, f.client, service.DefaultRegistry(),
		exchange.NewRecordLog(""), exchange.NopSink{}, hooks, fastOpts())

	reqSig, err := requester.RequestService(ctx, f.provider.Address, "hash", "abc", 100_000_000)
	require.NoError(t, err)

	details, err := f.client.GetTransfer(ctx, reqSig)
	require.NoError(t, err)
	require.Equal(t, relay.Address, details.Recipient)
}

func TestRecordLogFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "requester_exchanges.json")
	log := exchange.NewRecordLog(path)
	log.Append(exchange.Record{
		Type:         exchange.RecordServiceRequest,
		Signature:    "sig1",
		Memo:         "REQUEST:hash:abc",
		Amount:       100,
		Counterparty: "addr1",
	})
	require.NoError(t, log.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var records []exchange.Record
	require.NoError(t, jsonx.Unmarshal(data, &records))
	require.Len(t, records, 1)
	require.Equal(t, "sig1", records[0].Signature)
}

func TestEnsureFundedToleratesExhaustion(t *testing.T) {
	ml := memledger.New()
	ml.AirdropFailures = 100
	srv := httptest.NewServer(ml.Handler())
	defer srv.Close()
	c := ledger.NewClient(ledger.Config{
		Endpoint: srv.URL,
		Funding:  config.FundingConfig{MaxAttempts: 2, BaseBackoffMs: 1},
		Confirm:  config.ConfirmConfig{TimeoutMs: 200, PollIntervalMs: 5},
	})
	defer c.Close()

	w, err := wallet.New()
	require.NoError(t, err)
	require.NoError(t, exchange.EnsureFunded(context.Background(), c, w.Address, 1000, 5000))
	require.Zero(t, ml.Balance(w.Address))
}
