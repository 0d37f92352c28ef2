package exchange

// State is an enum-like string type for role phases.
type State string

// Requester phases.
const (
	StateIdle             State = "idle"
	StateRequestSent      State = "request_sent"
	StateAwaitingResponse State = "awaiting_response"
	StateVerifying        State = "verifying"
	StateProofPublished   State = "proof_published"
)

// Provider phases. StateIdle is shared.
const (
	StateAwaitingRequest State = "awaiting_request"
	StateExecuting       State = "executing"
	StateResponseSent    State = "response_sent"
)
