package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus instruments. Each server owns its
// own registry so multiple instances (tests, embedded use) never collide on
// collector registration.
type Metrics struct {
	registry *prometheus.Registry

	activeSessions      prometheus.Gauge
	sessionsTotal       prometheus.Counter
	disconnectionsTotal prometheus.Counter
	commandsTotal       *prometheus.CounterVec
	framesSentTotal     *prometheus.CounterVec
	broadcastDropsTotal prometheus.Counter
	filesRelayedTotal   prometheus.Counter
	fileBytesTotal      prometheus.Counter
}

// NewMetrics creates the instrument set on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chatrelay_active_sessions",
			Help: "Number of currently connected sessions.",
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatrelay_sessions_total",
			Help: "Total number of accepted connections.",
		}),
		disconnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatrelay_disconnections_total",
			Help: "Total number of session disconnects.",
		}),
		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chatrelay_commands_received_total",
			Help: "Client commands received, by command type.",
		}, []string{"type"}),
		framesSentTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chatrelay_frames_sent_total",
			Help: "Frames delivered to clients, by frame type.",
		}, []string{"type"}),
		broadcastDropsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatrelay_broadcast_drops_total",
			Help: "Per-recipient deliveries dropped due to write failures.",
		}),
		filesRelayedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatrelay_files_relayed_total",
			Help: "File transfers relayed to room members.",
		}),
		fileBytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatrelay_file_bytes_relayed_total",
			Help: "File payload bytes relayed to room members.",
		}),
	}
}

// Handler returns the /metrics HTTP handler for this server's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordSessionConnected() {
	m.sessionsTotal.Inc()
}

func (m *Metrics) RecordSessionDisconnected() {
	m.disconnectionsTotal.Inc()
}

func (m *Metrics) RecordActiveSessions(count int) {
	m.activeSessions.Set(float64(count))
}

func (m *Metrics) RecordCommand(kind string) {
	m.commandsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordFrameSent(kind string) {
	m.framesSentTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordBroadcastDrop() {
	m.broadcastDropsTotal.Inc()
}

func (m *Metrics) RecordFileRelayed(payloadBytes int, recipients int) {
	m.filesRelayedTotal.Inc()
	m.fileBytesTotal.Add(float64(payloadBytes * recipients))
}
