package quoter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// QuotesComputedTotal tracks quotes that reached the oracle.
	QuotesComputedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpmm_quoter_quotes_computed_total",
		Help: "Total number of quotes computed",
	}, []string{"side"})

	// QuotesShortCircuitedTotal tracks zero-effect quotes returned without an oracle call.
	QuotesShortCircuitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fpmm_quoter_quotes_short_circuited_total",
		Help: "Total number of zero-effect quotes for non-positive amounts or unknown outcomes",
	})

	// QuotesDiscardedTotal tracks results dropped because newer input arrived.
	QuotesDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fpmm_quoter_quotes_discarded_total",
		Help: "Total number of superseded quotes discarded",
	})

	// OracleFailuresTotal tracks oracle failures by reason.
	OracleFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpmm_quoter_oracle_failures_total",
		Help: "Total number of oracle calls that fell back to zero shares",
	}, []string{"side", "reason"})

	// OracleCallDuration tracks oracle latency.
	OracleCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fpmm_quoter_oracle_call_duration_seconds",
		Help:    "Duration of market maker oracle calls",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"side"})

	// PipelineQuoteLatency tracks input-to-published latency including debounce.
	PipelineQuoteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fpmm_quoter_pipeline_latency_seconds",
		Help:    "Latency from input submission to published quote",
		Buckets: prometheus.DefBuckets,
	})
)
