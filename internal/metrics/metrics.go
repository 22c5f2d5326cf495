// Package metrics exposes settlement counters on the prometheus registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements engine.Recorder.
type Metrics struct {
	submitted prometheus.Counter
	claimed   *prometheus.CounterVec
	rejected  *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		submitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "betcore_bets_submitted_total",
			Help: "Bets accepted into escrow.",
		}),
		claimed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "betcore_bets_claimed_total",
			Help: "Bets settled, by result code.",
		}, []string{"result"}),
		rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "betcore_operations_rejected_total",
			Help: "Rejected submit/claim operations, by error kind.",
		}, []string{"op", "kind"}),
	}
}

func (m *Metrics) Submitted() {
	m.submitted.Inc()
}

func (m *Metrics) Claimed(result string) {
	m.claimed.WithLabelValues(result).Inc()
}

func (m *Metrics) Rejected(op, kind string) {
	m.rejected.WithLabelValues(op, kind).Inc()
}
