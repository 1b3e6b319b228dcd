package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ActiveSessions tracks open websocket sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fpmm_ws_active_sessions",
		Help: "Number of active WebSocket sessions",
	})

	// MessagesReceivedTotal tracks inbound messages.
	MessagesReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fpmm_ws_messages_received_total",
		Help: "Total number of WebSocket messages received",
	})

	// MessagesSentTotal tracks outbound messages.
	MessagesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fpmm_ws_messages_sent_total",
		Help: "Total number of WebSocket messages sent",
	})

	// MessagesDroppedTotal tracks outbound messages dropped before delivery.
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fpmm_ws_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped before delivery",
		},
		[]string{"reason"},
	)

	// SessionDuration tracks WebSocket session lifetime.
	SessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fpmm_ws_session_duration_seconds",
		Help:    "Duration of WebSocket sessions",
		Buckets: []float64{1, 10, 60, 300, 600, 1800, 3600, 7200},
	})
)
