// Package metrics provides Prometheus metrics for the whiteboard engine and relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every ClassBoard metric.
type Manager struct {
	namespace string
	subsystem string
	registry  prometheus.Registerer

	// Replication engine
	eventsApplied *prometheus.CounterVec
	eventsSent    *prometheus.CounterVec
	eventsDropped *prometheus.CounterVec
	sendErrors    prometheus.Counter
	replays       prometheus.Counter
	redraws       prometheus.Counter
	coalesced     prometheus.Counter
	logLength     prometheus.Gauge
	textItems     prometheus.Gauge

	// Relay
	peersConnected prometheus.Gauge
	relayed        prometheus.Counter
	relayDropped   prometheus.Counter
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "classboard",
		subsystem: "whiteboard",
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.eventsApplied = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_applied_total",
		Help:      "Events applied to the replicated board, by kind and origin",
	}, []string{"kind", "origin"})

	m.eventsSent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_sent_total",
		Help:      "Events broadcast to the session channel, by kind",
	}, []string{"kind"})

	m.eventsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_dropped_total",
		Help:      "Inbound events dropped before application, by reason",
	}, []string{"reason"})

	m.sendErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "send_errors_total",
		Help:      "Broadcasts the transport refused; never retried",
	})

	m.replays = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replays_total",
		Help:      "Full replays of the event log",
	})

	m.redraws = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "redraws_total",
		Help:      "Scheduled repaints that actually ran",
	})

	m.coalesced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "redraws_coalesced_total",
		Help:      "Redraw requests absorbed by an already pending repaint",
	})

	m.logLength = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_log_length",
		Help:      "Current number of events in the local log",
	})

	m.textItems = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "text_items",
		Help:      "Current number of text items on the board",
	})

	m.peersConnected = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "relay",
		Name:      "peers_connected",
		Help:      "Peers currently attached to the relay",
	})

	m.relayed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "relay",
		Name:      "messages_relayed_total",
		Help:      "Envelopes queued for delivery to a peer",
	})

	m.relayDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "relay",
		Name:      "messages_dropped_total",
		Help:      "Envelopes dropped because a peer queue was full",
	})
}

// RecordEventApplied counts an applied event. origin is "local" or "remote".
func RecordEventApplied(kind, origin string) {
	globalManager.eventsApplied.WithLabelValues(kind, origin).Inc()
}

// RecordEventSent counts a broadcast event.
func RecordEventSent(kind string) {
	globalManager.eventsSent.WithLabelValues(kind).Inc()
}

// RecordEventDropped counts an inbound event that failed validation or was ignored.
func RecordEventDropped(reason string) {
	globalManager.eventsDropped.WithLabelValues(reason).Inc()
}

// RecordSendError counts a failed broadcast.
func RecordSendError() {
	globalManager.sendErrors.Inc()
}

// RecordReplay counts a full log replay.
func RecordReplay() {
	globalManager.replays.Inc()
}

// RecordRedraw counts a scheduled repaint that ran.
func RecordRedraw() {
	globalManager.redraws.Inc()
}

// RecordRedrawCoalesced counts a redraw request absorbed by a pending one.
func RecordRedrawCoalesced() {
	globalManager.coalesced.Inc()
}

// UpdateBoardSize publishes the current log length and text item count.
func UpdateBoardSize(logLen, texts int) {
	globalManager.logLength.Set(float64(logLen))
	globalManager.textItems.Set(float64(texts))
}

// UpdatePeersConnected publishes the relay peer count.
func UpdatePeersConnected(n int) {
	globalManager.peersConnected.Set(float64(n))
}

// RecordRelayed counts an envelope queued for a peer.
func RecordRelayed() {
	globalManager.relayed.Inc()
}

// RecordRelayDropped counts an envelope dropped on a full peer queue.
func RecordRelayDropped() {
	globalManager.relayDropped.Inc()
}

// GetRegistry returns the registry served on /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
