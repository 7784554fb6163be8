package metrics

import (
	"net/http"

	"github.com/mossy-p/roulette-signaling/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Event labels for roulette_events_total.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
	EventMatched      = "matched"
	EventPairEnded    = "pair_ended"
	EventSendDropped  = "send_dropped"
)

// Metrics exports relay state to Prometheus. It implements the hub observer hooks;
// every method only touches in-memory collectors.
type Metrics struct {
	registry *prometheus.Registry

	online  prometheus.Gauge
	waiting prometheus.Gauge
	pairs   prometheus.Gauge
	events  *prometheus.CounterVec
	relayed *prometheus.CounterVec
}

// New creates collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roulette_online_connections",
			Help: "Live websocket connections.",
		}),
		waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roulette_waiting_connections",
			Help: "Connections waiting for a partner.",
		}),
		pairs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roulette_active_pairs",
			Help: "Currently paired connections, counted once per pair.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roulette_events_total",
			Help: "Connection and pairing lifecycle events.",
		}, []string{"event"}),
		relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roulette_relayed_messages_total",
			Help: "Signaling and chat messages forwarded to a partner.",
		}, []string{"type"}),
	}

	m.registry.MustRegister(
		m.online, m.waiting, m.pairs, m.events, m.relayed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ConnectionOpened(string)    { m.events.WithLabelValues(EventConnected).Inc() }
func (m *Metrics) ConnectionClosed(string)    { m.events.WithLabelValues(EventDisconnected).Inc() }
func (m *Metrics) PairCreated(string, string) { m.events.WithLabelValues(EventMatched).Inc() }
func (m *Metrics) PairEnded(string, string)   { m.events.WithLabelValues(EventPairEnded).Inc() }
func (m *Metrics) SendDropped(string)         { m.events.WithLabelValues(EventSendDropped).Inc() }

func (m *Metrics) Relayed(event models.EventType) {
	m.relayed.WithLabelValues(string(event)).Inc()
}

func (m *Metrics) StatusChanged(status models.Status) {
	m.online.Set(float64(status.Online))
	m.waiting.Set(float64(status.Waiting))
	m.pairs.Set(float64(status.ActivePairs))
}
