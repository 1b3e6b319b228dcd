package markets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// SubgraphFetchDuration tracks subgraph query latency.
	SubgraphFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fpmm_markets_subgraph_fetch_duration_seconds",
		Help:    "Duration of market maker fetch from the subgraph",
		Buckets: prometheus.DefBuckets,
	})

	// SubgraphFetchErrorsTotal tracks subgraph fetch failures.
	SubgraphFetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fpmm_markets_subgraph_fetch_errors_total",
		Help: "Total number of subgraph fetch errors",
	})

	// PoolCacheHitsTotal tracks cache hits for pool snapshots.
	PoolCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fpmm_markets_pool_cache_hits_total",
		Help: "Total number of pool snapshot cache hits",
	})

	// PoolCacheMissesTotal tracks cache misses for pool snapshots.
	PoolCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fpmm_markets_pool_cache_misses_total",
		Help: "Total number of pool snapshot cache misses",
	})
)
