package metrics

import "github.com/prometheus/client_golang/prometheus"

// RealtimeMetrics holds Prometheus metrics for the realtime connection registry.
type RealtimeMetrics struct {
	TrackedConnections prometheus.Gauge
	ConnectionsTotal   prometheus.Counter
	RemovalsTotal      *prometheus.CounterVec
	EventsSent         *prometheus.CounterVec
	SendFailures       prometheus.Counter
	HeartbeatsSent     prometheus.Counter
}

// NewRealtimeMetrics creates and registers realtime metrics on the given registry.
func NewRealtimeMetrics(reg prometheus.Registerer) *RealtimeMetrics {
	m := &RealtimeMetrics{
		TrackedConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "tracked_connections",
			Help:      "Number of connections admitted and not yet removed. Open sockets are reported by the stats endpoint.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "connections_total",
			Help:      "Total number of connections admitted since start.",
		}),
		RemovalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "removals_total",
			Help:      "Total number of connections removed, by reason.",
		}, []string{"reason"}),
		EventsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_sent_total",
			Help:      "Total number of events delivered to connections, by event type.",
		}, []string{"type"}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "send_failures_total",
			Help:      "Total number of event deliveries that failed.",
		}),
		HeartbeatsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "heartbeats_sent_total",
			Help:      "Total number of heartbeat pings sent to connections.",
		}),
	}

	reg.MustRegister(
		m.TrackedConnections,
		m.ConnectionsTotal,
		m.RemovalsTotal,
		m.EventsSent,
		m.SendFailures,
		m.HeartbeatsSent,
	)
	return m
}
