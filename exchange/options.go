package exchange

import (
	"time"

	"memoex/config"
)

// Options tunes the polling and gating behavior shared by both roles.
type Options struct {
	// Bounded polling for counterparty transactions to become visible:
	// at most PollMaxAttempts probes, PollDelay apart.
	PollMaxAttempts int
	PollDelay       time.Duration

	// RiskThreshold gates the request phase when a RiskScore hook is set.
	RiskThreshold float64

	// MinPaymentLamports is the smallest payment a provider accepts as
	// covering a service request.
	MinPaymentLamports uint64
}

// OptionsFromPollConfig builds Options from the [poll] tuning section.
func OptionsFromPollConfig(pc config.PollConfig) Options {
	return Options{
		PollMaxAttempts:    pc.MaxAttempts,
		PollDelay:          time.Duration(pc.DelayMs) * time.Millisecond,
		RiskThreshold:      defaultRiskThreshold,
		MinPaymentLamports: 1,
	}
}

const defaultRiskThreshold = 0.8

func (o Options) withDefaults() Options {
	if o.PollMaxAttempts == 0 {
		o.PollMaxAttempts = config.DefaultPollConfig().MaxAttempts
	}
	if o.PollDelay == 0 {
		o.PollDelay = time.Duration(config.DefaultPollConfig().DelayMs) * time.Millisecond
	}
	if o.RiskThreshold == 0 {
		o.RiskThreshold = defaultRiskThreshold
	}
	if o.MinPaymentLamports == 0 {
		o.MinPaymentLamports = 1
	}
	return o
}
