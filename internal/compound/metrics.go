package compound

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ExchangeRate tracks the last refreshed raw exchange rate per cToken.
	ExchangeRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fpmm_compound_exchange_rate",
		Help: "Last refreshed cToken exchange rate (raw, unscaled)",
	}, []string{"ctoken"})

	// RateRefreshesTotal tracks successful rate refreshes.
	RateRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpmm_compound_rate_refreshes_total",
		Help: "Total number of successful exchange rate refreshes",
	}, []string{"ctoken"})

	// RateRefreshErrorsTotal tracks failed rate refreshes.
	RateRefreshErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpmm_compound_rate_refresh_errors_total",
		Help: "Total number of failed exchange rate refreshes",
	}, []string{"ctoken"})

	// RateFetchDuration tracks exchange rate source latency.
	RateFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fpmm_compound_rate_fetch_duration_seconds",
		Help:    "Duration of exchange rate fetches",
		Buckets: prometheus.DefBuckets,
	})
)
