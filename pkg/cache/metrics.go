package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpmm_cache_hits_total",
		Help: "Total number of cache hits",
	}, []string{"namespace"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpmm_cache_misses_total",
		Help: "Total number of cache misses",
	}, []string{"namespace"})

	CacheSetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpmm_cache_sets_total",
		Help: "Total number of cache sets",
	}, []string{"namespace"})

	CacheDeletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpmm_cache_deletes_total",
		Help: "Total number of cache deletes",
	}, []string{"namespace"})
)
