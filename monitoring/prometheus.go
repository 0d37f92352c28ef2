package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"memoex/logx"
)

type exchangePromMetrics struct {
	txSubmitted      *prometheus.CounterVec
	confirmLatency   prometheus.Histogram
	airdropAttempts  prometheus.Counter
	exchangeOutcomes *prometheus.CounterVec
	panicCount       prometheus.Counter
}

func newExchangePromMetrics() *exchangePromMetrics {
	return &exchangePromMetrics{
		txSubmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memoex_tx_submitted_total",
				Help: "Transactions submitted to the ledger, by kind",
			},
			[]string{"kind"},
		),
		confirmLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "memoex_tx_confirm_seconds",
				Help: "Latency in seconds from submission until confirmed commitment",
			},
		),
		airdropAttempts: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "memoex_airdrop_attempts_total",
				Help: "Airdrop funding attempts, including retries",
			},
		),
		exchangeOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memoex_exchanges_total",
				Help: "Completed exchanges, by proof outcome",
			},
			[]string{"outcome"},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "memoex_panic_total",
				Help: "Recovered panics in guarded goroutines",
			},
		),
	}
}

var metrics = newExchangePromMetrics()

func IncreaseTxSubmitted(kind string) {
	metrics.txSubmitted.WithLabelValues(kind).Inc()
}

func ObserveConfirmLatency(d time.Duration) {
	metrics.confirmLatency.Observe(d.Seconds())
}

func IncreaseAirdropAttempt() {
	metrics.airdropAttempts.Inc()
}

func IncreaseExchangeOutcome(outcome string) {
	metrics.exchangeOutcomes.WithLabelValues(outcome).Inc()
}

func IncreasePanicCount() {
	metrics.panicCount.Inc()
}

// StartMetricsServer exposes /metrics on addr. Best effort: a bind failure
// is logged, not fatal.
func StartMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logx.Error("MONITORING", "Metrics server stopped: ", err)
		}
	}()
}
