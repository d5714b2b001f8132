// Package metrics exposes ecosystem counters and gauges to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

const namespace = "ecosystem"

// Metrics holds every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	messagesRelayed  *prometheus.CounterVec
	messagesDropped  *prometheus.CounterVec
	deliveriesFailed prometheus.Counter
	peers            prometheus.Gauge
	registrations    *prometheus.CounterVec

	revenueTotal  prometheus.Gauge
	revenueHourly prometheus.Gauge
	tasksAssigned prometheus.Gauge
	agents        *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		messagesRelayed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "messages_relayed_total",
			Help:      "Messages accepted for relay, by message kind.",
		}, []string{"kind"}),
		messagesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "messages_dropped_total",
			Help:      "Inbound messages dropped before relay, by reason.",
		}, []string{"reason"}),
		deliveriesFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "deliveries_dropped_total",
			Help:      "Per-peer deliveries dropped because the peer buffer was full.",
		}),
		peers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "peers_connected",
			Help:      "Currently connected relay peers.",
		}),
		registrations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "registrations_total",
			Help:      "Registration attempts, by outcome.",
		}, []string{"outcome"}),
		revenueTotal: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "revenue",
			Name:      "total",
			Help:      "Running revenue total.",
		}),
		revenueHourly: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "revenue",
			Name:      "hourly_rate",
			Help:      "Hourly rate computed by the last tick.",
		}),
		tasksAssigned: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "tasks_assigned",
			Help:      "Tasks derived by the last assignment pass.",
		}),
		agents: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "agents",
			Help:      "Configured agents, by status.",
		}, []string{"status"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// MessageRelayed implements hub.Recorder. Free-form types are folded into
// "other" to bound label cardinality.
func (m *Metrics) MessageRelayed(msgType string) {
	kind := "other"
	switch msgType {
	case string(domain.MessageTypeRevenueGenerated):
		kind = msgType
	case "":
		kind = "untyped"
	}
	m.messagesRelayed.WithLabelValues(kind).Inc()
}

// MessageDropped implements hub.Recorder.
func (m *Metrics) MessageDropped(reason string) {
	m.messagesDropped.WithLabelValues(reason).Inc()
}

// DeliveryDropped implements hub.Recorder.
func (m *Metrics) DeliveryDropped() {
	m.deliveriesFailed.Inc()
}

// PeersConnected implements hub.Recorder.
func (m *Metrics) PeersConnected(n int) {
	m.peers.Set(float64(n))
}

// Registration implements hub.Recorder.
func (m *Metrics) Registration(outcome string) {
	m.registrations.WithLabelValues(outcome).Inc()
}

// RevenueUpdated implements revenue.Observer.
func (m *Metrics) RevenueUpdated(total, hourlyRate float64) {
	m.revenueTotal.Set(total)
	m.revenueHourly.Set(hourlyRate)
}

// TasksAssigned records the size of the last assignment pass.
func (m *Metrics) TasksAssigned(n int) {
	m.tasksAssigned.Set(float64(n))
}

// AgentStatuses replaces the per-status agent gauge.
func (m *Metrics) AgentStatuses(agents []domain.Agent) {
	counts := map[domain.AgentStatus]int{
		domain.AgentStatusInitializing: 0,
		domain.AgentStatusActive:       0,
		domain.AgentStatusFailed:       0,
	}
	for _, a := range agents {
		counts[a.Status]++
	}
	for status, n := range counts {
		m.agents.WithLabelValues(string(status)).Set(float64(n))
	}
}
