package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ethospair"

// Metrics groups the counters the usecases report. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	requests         *prometheus.CounterVec
	bondsCreated     prometheus.Counter
	unbonds          prometheus.Counter
	blocks           prometheus.Counter
	candidatesServed prometheus.Histogram
	gatewayFallbacks *prometheus.CounterVec
	messagesSent     prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bonding",
			Name:      "requests_total",
			Help:      "Pair requests by outcome",
		}, []string{"outcome"}),
		bondsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bonding",
			Name:      "bonds_created_total",
			Help:      "Bonds created from accepted requests",
		}),
		unbonds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bonding",
			Name:      "unbonds_total",
			Help:      "Bonds removed by a member",
		}),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bonding",
			Name:      "blocks_total",
			Help:      "Block actions",
		}),
		candidatesServed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "candidates",
			Help:      "Number of candidates returned per discovery call",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		gatewayFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ethos",
			Name:      "fallbacks_total",
			Help:      "Gateway lookups that fell back to cached or zero values",
		}, []string{"operation"}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "messages_sent_total",
			Help:      "Messages stored",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.requests,
			m.bondsCreated,
			m.unbonds,
			m.blocks,
			m.candidatesServed,
			m.gatewayFallbacks,
			m.messagesSent,
		)
	}
	return m
}

// Request outcomes.
const (
	RequestSent     = "sent"
	RequestAccepted = "accepted"
	RequestDeclined = "declined"
)

func (m *Metrics) RequestOutcome(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) BondCreated() {
	if m == nil {
		return
	}
	m.bondsCreated.Inc()
}

func (m *Metrics) Unbonded() {
	if m == nil {
		return
	}
	m.unbonds.Inc()
}

func (m *Metrics) Blocked() {
	if m == nil {
		return
	}
	m.blocks.Inc()
}

func (m *Metrics) CandidatesServed(n int) {
	if m == nil {
		return
	}
	m.candidatesServed.Observe(float64(n))
}

func (m *Metrics) GatewayFallback(operation string) {
	if m == nil {
		return
	}
	m.gatewayFallbacks.WithLabelValues(operation).Inc()
}

func (m *Metrics) MessageSent() {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
}
