package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"memoex/ledger"
	"memoex/memo"
	"memoex/service"
	"memoex/wallet"
)

// Provider observes a paid REQUEST, executes the service and returns the
// result in a RESPONSE memo riding a nominal return transfer. ResponseSent
// is its terminal state; it does not wait for the requester's proof.
type Provider struct {
	id       string
	wallet   *wallet.Wallet
	client   *ledger.Client
	registry *service.Registry
	log      *RecordLog
	sink     EventSink
	hooks    Hooks
	opts     Options

	// ResponseLamports is the nominal transfer carrying the response memo;
	// it keeps the return transaction a well-formed value transfer, it is
	// not a fee.
	responseLamports uint64

	state State
	sleep func(time.Duration)
}

func NewProvider(w *wallet.Wallet, c *ledger.Client, reg *service.Registry, log *RecordLog, sink EventSink, hooks Hooks, opts Options, responseLamports uint64) *Provider {
	if sink == nil {
		sink = NopSink{}
	}
	return &Provider{
		id:               uuid.NewString(),
		wallet:           w,
		client:           c,
		registry:         reg,
		log:              log,
		sink:             sink,
		hooks:            hooks,
		opts:             opts.withDefaults(),
		responseLamports: responseLamports,
		state:            StateIdle,
		sleep:            time.Sleep,
	}
}

func (p *Provider) State() State    { return p.state }
func (p *Provider) Address() string { return p.wallet.Address }

// Services lists what this provider is prepared to execute.
func (p *Provider) Services() []string { return p.registry.Names() }

func (p *Provider) emit(phase State, message, signature string) {
	p.sink.Emit(Event{
		ExchangeID: p.id,
		Role:       "provider",
		Phase:      phase,
		Message:    message,
		Signature:  signature,
	})
}

// ProcessRequest handles one full provider cycle for the request identified
// by requestSig. The signature arrives out-of-band (the demo passes it
// directly; a fielded deployment would scan its own incoming transfers).
// The payment is verified against the ledger's transfer record, never
// against what the memo claims.
func (p *Provider) ProcessRequest(ctx context.Context, requestSig, requesterAddr string) (string, error) {
	if p.state != StateIdle {
		return "", fmt.Errorf("exchange: cannot process a request from state %q", p.state)
	}
	p.state = StateAwaitingRequest
	p.emit(StateAwaitingRequest, "watching for request transaction", requestSig)

	msg, err := pollForMessage(ctx, p.client, requestSig, memo.TagRequest, p.opts, p.sleep)
	if err != nil {
		p.state = StateIdle
		return "", err
	}

	if err := p.verifyPayment(ctx, requestSig, requesterAddr); err != nil {
		p.state = StateIdle
		return "", err
	}

	p.state = StateExecuting
	p.emit(StateExecuting, "executing service "+msg.ServiceType(), requestSig)
	p.hooks.trace(StateExecuting, "executing "+msg.ServiceType())

	result, err := p.registry.Execute(msg.ServiceType(), msg.Payload())
	if err != nil {
		p.state = StateIdle
		return "", err
	}

	responseMemo := memo.EncodeResponse(msg.ServiceType(), result)
	recipient, amount := requesterAddr, p.responseLamports
	if p.hooks.ShieldTransfer != nil {
		recipient, amount = p.hooks.ShieldTransfer(recipient, amount)
	}

	responseSig, err := p.client.SubmitTransfer(ctx, p.wallet, recipient, amount, responseMemo)
	if err != nil {
		p.state = StateIdle
		return "", err
	}

	p.state = StateResponseSent
	p.log.Append(Record{
		Type:         RecordServiceExecution,
		Signature:    responseSig,
		Memo:         responseMemo,
		Amount:       amount,
		Counterparty: requesterAddr,
	})
	p.emit(StateResponseSent, "service result returned", responseSig)
	return responseSig, nil
}

// verifyPayment re-derives the payment from the ledger's own record of the
// request transaction: right payer, right recipient, enough lamports. The
// memo's self-description is never trusted for this.
func (p *Provider) verifyPayment(ctx context.Context, requestSig, requesterAddr string) error {
	details, err := p.client.GetTransfer(ctx, requestSig)
	if err != nil {
		return err
	}
	if details.Recipient != p.wallet.Address {
		return fmt.Errorf("exchange: payment in %s goes to %s, not this provider", requestSig, details.Recipient)
	}
	if details.Sender != requesterAddr {
		return fmt.Errorf("exchange: payment in %s comes from %s, not the expected requester", requestSig, details.Sender)
	}
	if details.Lamports < p.opts.MinPaymentLamports {
		return fmt.Errorf("exchange: payment of %d lamports in %s is below the %d minimum",
			details.Lamports, requestSig, p.opts.MinPaymentLamports)
	}
	p.emit(StateAwaitingRequest,
		fmt.Sprintf("payment of %d lamports verified from ledger record", details.Lamports), requestSig)
	return nil
}

// Reset returns a terminal provider to Idle so it can serve the next
// request within the same session.
func (p *Provider) Reset() {
	if p.state == StateResponseSent {
		p.state = StateIdle
	}
}

// Close flushes the exchange record log.
func (p *Provider) Close() error {
	return p.log.Flush()
}
