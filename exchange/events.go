package exchange

import (
	"fmt"

	"memoex/logx"
)

// Event is one structured progress notification from a role. Sinks replace
// ad-hoc printing: the orchestrator never writes to stdout itself.
type Event struct {
	ExchangeID string
	Role       string
	Phase      State
	Message    string
	Signature  string
}

type EventSink interface {
	Emit(e Event)
}

// LogSink routes events into the shared log.
type LogSink struct{}

func (LogSink) Emit(e Event) {
	msg := fmt.Sprintf("[%s] %s -> %s: %s", e.ExchangeID, e.Role, e.Phase, e.Message)
	if e.Signature != "" {
		msg += fmt.Sprintf(" (tx %s)", e.Signature)
	}
	logx.Info("EXCHANGE", msg)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Emit(Event) {}
