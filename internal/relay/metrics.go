package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "valuecharts_relay_sessions",
		Help: "Open websocket sessions across all charts.",
	})

	mirrorsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "valuecharts_relay_mirrors",
		Help: "Charts with a live mirror.",
	})

	messagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuecharts_relay_messages_total",
			Help: "Relay messages by type and direction.",
		},
		[]string{"type", "direction"},
	)

	droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "valuecharts_relay_dropped_sessions_total",
		Help: "Sessions closed because their send buffer was full.",
	})
)
