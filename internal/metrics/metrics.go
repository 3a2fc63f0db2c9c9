package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes coordinator counters to Prometheus. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	registry *prometheus.Registry

	connectionsActive prometheus.Gauge
	sessionsActive    prometheus.Gauge
	signalsRelayed    prometheus.Counter
	messagesBroadcast prometheus.Counter
	joinsRejected     *prometheus.CounterVec
}

// New builds a Metrics with its own registry so multiple instances can
// coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signal_server_connections_active",
			Help: "Number of live websocket connections.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signal_server_sessions_active",
			Help: "Number of live sessions.",
		}),
		signalsRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signal_server_signals_relayed_total",
			Help: "Signaling payloads relayed peer to peer.",
		}),
		messagesBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signal_server_messages_broadcast_total",
			Help: "Chat messages broadcast to sessions.",
		}),
		joinsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signal_server_joins_rejected_total",
			Help: "Join attempts rejected, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(
		m.connectionsActive,
		m.sessionsActive,
		m.signalsRelayed,
		m.messagesBroadcast,
		m.joinsRejected,
	)
	return m
}

// Handler serves the metrics in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ConnOpened() {
	if m != nil {
		m.connectionsActive.Inc()
	}
}

func (m *Metrics) ConnClosed() {
	if m != nil {
		m.connectionsActive.Dec()
	}
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.sessionsActive.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.sessionsActive.Dec()
	}
}

func (m *Metrics) SignalRelayed() {
	if m != nil {
		m.signalsRelayed.Inc()
	}
}

func (m *Metrics) MessageBroadcast() {
	if m != nil {
		m.messagesBroadcast.Inc()
	}
}

func (m *Metrics) JoinRejected(reason string) {
	if m != nil {
		m.joinsRejected.WithLabelValues(reason).Inc()
	}
}
