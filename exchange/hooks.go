package exchange

// Hooks are the partner-integration extension points. Each is optional and
// opaque to the protocol: the orchestrator calls them around phases and at
// most gates on the result, never depends on their internals. All defaults
// are nil, meaning "skip".
type Hooks struct {
	// PriceQuote suggests a payment for a service type, e.g. from a
	// pricing benchmark. Advisory only; the configured amount wins.
	PriceQuote func(serviceType string) (lamports uint64, ok bool)

	// RiskScore rates a counterparty in [0,1]. When set, a requester
	// aborts the request phase if the score exceeds its threshold.
	RiskScore func(counterparty string) (score float64, ok bool)

	// ShieldTransfer may rewrite the (recipient, amount) pair before
	// submission, e.g. for a privacy-shielding relay.
	ShieldTransfer func(recipient string, lamports uint64) (string, uint64)

	// ReasoningTrace receives a human-readable note per phase.
	ReasoningTrace func(phase State, detail string)
}

func (h Hooks) trace(phase State, detail string) {
	if h.ReasoningTrace != nil {
		h.ReasoningTrace(phase, detail)
	}
}
