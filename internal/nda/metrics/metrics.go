package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the NDA request lifecycle.
type Metrics struct {
	RequestsCreated    prometheus.Counter
	Transitions        *prometheus.CounterVec
	SideEffectFailures *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealroom_nda_requests_created_total",
			Help: "Total NDA requests created",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dealroom_nda_transitions_total",
			Help: "NDA transition attempts by target status and outcome",
		}, []string{"status", "outcome"}), // outcome: "ok", "forbidden", "invalid", "error"

		SideEffectFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dealroom_nda_side_effect_failures_total",
			Help: "Best-effort NDA side effects that failed after commit",
		}, []string{"effect"}), // effect: "message", "notification"
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.RequestsCreated.Inc()
	}
}

func (m *Metrics) IncrementTransition(status, outcome string) {
	if m != nil {
		m.Transitions.WithLabelValues(status, outcome).Inc()
	}
}

func (m *Metrics) IncrementSideEffectFailure(effect string) {
	if m != nil {
		m.SideEffectFailures.WithLabelValues(effect).Inc()
	}
}
