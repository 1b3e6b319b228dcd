package chain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ContractCallsTotal tracks eth_call requests by contract kind, method and outcome.
	ContractCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpmm_chain_contract_calls_total",
		Help: "Total number of read-only contract calls",
	}, []string{"contract", "method", "status"})

	// ContractCallDuration tracks eth_call latency.
	ContractCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fpmm_chain_contract_call_duration_seconds",
		Help:    "Time taken by read-only contract calls (seconds)",
		Buckets: prometheus.DefBuckets,
	}, []string{"contract", "method"})
)
