// Package exchange drives the four-phase request -> execute -> verify ->
// prove protocol over the ledger's memo channel. The two roles are
// symmetric state machines with no shared memory; the ledger is their only
// coordination medium, so every read after a submission is treated as
// eventually consistent and polled with a bounded wait.
package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"memoex/errors"
	"memoex/ledger"
	"memoex/memo"
	"memoex/monitoring"
	"memoex/service"
	"memoex/wallet"
)

// Requester pays for a service, awaits the result, verifies it locally and
// publishes an on-chain verdict. Phases run strictly in order; a phase that
// fails surfaces its error and the exchange is abandoned. The ledger's
// committed writes are permanent, so there is no rollback to attempt.
type Requester struct {
	id       string
	wallet   *wallet.Wallet
	client   *ledger.Client
	registry *service.Registry
	log      *RecordLog
	sink     EventSink
	hooks    Hooks
	opts     Options

	state State
	sleep func(time.Duration)

	// Context retained across phases for local re-verification.
	lastServiceType string
	lastInput       string
	requestSig      string
}

func NewRequester(w *wallet.Wallet, c *ledger.Client, reg *service.Registry, log *RecordLog, sink EventSink, hooks Hooks, opts Options) *Requester {
	if sink == nil {
		sink = NopSink{}
	}
	return &Requester{
		id:       uuid.NewString(),
		wallet:   w,
		client:   c,
		registry: reg,
		log:      log,
		sink:     sink,
		hooks:    hooks,
		opts:     opts.withDefaults(),
		state:    StateIdle,
		sleep:    time.Sleep,
	}
}

func (r *Requester) State() State    { return r.state }
func (r *Requester) Address() string { return r.wallet.Address }

func (r *Requester) emit(phase State, message, signature string) {
	r.sink.Emit(Event{
		ExchangeID: r.id,
		Role:       "requester",
		Phase:      phase,
		Message:    message,
		Signature:  signature,
	})
}

// RequestService submits a payment to the provider carrying the encoded
// REQUEST memo, bound atomically in one transaction. On success the role
// moves to AwaitingResponse and the request signature is retained as the
// out-of-band handle handed to the provider.
func (r *Requester) RequestService(ctx context.Context, provider, serviceType, input string, lamports uint64) (string, error) {
	if r.state != StateIdle {
		return "", fmt.Errorf("exchange: cannot request a service from state %q", r.state)
	}

	if r.hooks.RiskScore != nil {
		if score, ok := r.hooks.RiskScore(provider); ok && score > r.opts.RiskThreshold {
			return "", fmt.Errorf("exchange: counterparty %s risk %.2f exceeds threshold %.2f",
				provider, score, r.opts.RiskThreshold)
		}
	}
	if r.hooks.PriceQuote != nil {
		if quote, ok := r.hooks.PriceQuote(serviceType); ok {
			r.emit(StateIdle, fmt.Sprintf("price benchmark for %s: %d lamports (paying %d)",
				serviceType, quote, lamports), "")
		}
	}
	recipient, amount := provider, lamports
	if r.hooks.ShieldTransfer != nil {
		recipient, amount = r.hooks.ShieldTransfer(recipient, amount)
	}

	memoText := memo.EncodeRequest(serviceType, input)
	r.hooks.trace(StateRequestSent, "requesting "+serviceType)

	sig, err := r.client.SubmitTransfer(ctx, r.wallet, recipient, amount, memoText)
	if err != nil {
		// No record for a failed attempt; state stays Idle so the caller
		// may retry with a fresh submission.
		return "", err
	}

	r.lastServiceType = serviceType
	r.lastInput = input
	r.requestSig = sig
	r.state = StateRequestSent
	r.log.Append(Record{
		Type:         RecordServiceRequest,
		Signature:    sig,
		Memo:         memoText,
		Amount:       amount,
		Counterparty: provider,
	})
	r.emit(StateRequestSent, "service request submitted", sig)

	r.state = StateAwaitingResponse
	return sig, nil
}

// AwaitAndVerify polls for the provider's RESPONSE transaction, then
// recomputes the expected result locally and compares byte-for-byte. A
// mismatch is a valid outcome (verified=false), not an error; that covers
// the payload as well as the service type, which is counterparty-supplied
// and must never steer which function runs locally. Errors are reserved
// for the response never appearing or the local recomputation failing.
func (r *Requester) AwaitAndVerify(ctx context.Context, responseSig string) (bool, error) {
	if r.state != StateAwaitingResponse {
		return false, fmt.Errorf("exchange: cannot verify from state %q", r.state)
	}

	msg, err := r.pollForMessage(ctx, responseSig, memo.TagResponse)
	if err != nil {
		return false, err
	}

	r.state = StateVerifying
	r.emit(StateVerifying, "response received, recomputing locally", responseSig)
	r.hooks.trace(StateVerifying, "verifying result for "+r.lastServiceType)

	if msg.ServiceType() != r.lastServiceType {
		r.emit(StateVerifying, fmt.Sprintf("response claims service %q, requested %q",
			msg.ServiceType(), r.lastServiceType), responseSig)
		return false, nil
	}

	expected, err := r.registry.Execute(r.lastServiceType, r.lastInput)
	if err != nil {
		return false, err
	}
	verified := expected == msg.Payload()
	if verified {
		r.emit(StateVerifying, "result matches local recomputation", responseSig)
	} else {
		r.emit(StateVerifying, "result does NOT match local recomputation", responseSig)
	}
	return verified, nil
}

// PublishProof submits the memo-only PROOF transaction referencing the
// response signature: an immutable, independently auditable verdict. Both
// verdicts are success paths for the protocol.
func (r *Requester) PublishProof(ctx context.Context, responseSig string, verified bool) (string, error) {
	if r.state != StateVerifying {
		return "", fmt.Errorf("exchange: cannot publish proof from state %q", r.state)
	}

	memoText := memo.EncodeProof(responseSig, verified)
	sig, err := r.client.SubmitMemo(ctx, r.wallet, memoText)
	if err != nil {
		return "", err
	}

	r.state = StateProofPublished
	r.log.Append(Record{
		Type:         RecordVerificationProof,
		Signature:    sig,
		Memo:         memoText,
		Amount:       0,
		Counterparty: "",
	})

	outcome := memo.StatusFailed
	if verified {
		outcome = memo.StatusVerified
	}
	monitoring.IncreaseExchangeOutcome(outcome)
	r.emit(StateProofPublished, "verification proof published: "+outcome, sig)
	return sig, nil
}

// pollForMessage waits for a signature's memo to become visible and decode
// to the wanted tag. Invalid or foreign memos are "not yet available", not
// failures; only exhausting the bounded wait is.
func (r *Requester) pollForMessage(ctx context.Context, signature, wantTag string) (memo.Message, error) {
	return pollForMessage(ctx, r.client, signature, wantTag, r.opts, r.sleep)
}

// Close flushes the exchange record log.
func (r *Requester) Close() error {
	return r.log.Flush()
}

func pollForMessage(ctx context.Context, c *ledger.Client, signature, wantTag string, opts Options, sleep func(time.Duration)) (memo.Message, error) {
	for attempt := 1; attempt <= opts.PollMaxAttempts; attempt++ {
		if text, ok := c.FetchMemo(ctx, signature); ok {
			if msg, ok := memo.Decode(text); ok && msg.Tag == wantTag {
				return msg, nil
			}
		}
		if ctx.Err() != nil {
			return memo.Message{}, errors.Errorf(errors.ErrCodeDecodeInvalid,
				"waiting for %s memo on %s: %v", wantTag, signature, ctx.Err())
		}
		if attempt < opts.PollMaxAttempts {
			sleep(opts.PollDelay)
		}
	}
	return memo.Message{}, errors.Errorf(errors.ErrCodeDecodeInvalid,
		"no %s memo visible on %s after %d attempts", wantTag, signature, opts.PollMaxAttempts)
}
