package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for listing reads.
type Metrics struct {
	AccessDecisions   *prometheus.CounterVec
	Views             *prometheus.CounterVec
	NDALookupFailures prometheus.Counter
	ListingsCreated   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		AccessDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dealroom_listing_access_decisions_total",
			Help: "Listing reads by the policy rule that decided them",
		}, []string{"rule"}),
		Views: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dealroom_listing_views_total",
			Help: "Listing view recording attempts",
		}, []string{"outcome"}), // outcome: "counted", "bot", "owner", "failed"
		NDALookupFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealroom_listing_nda_lookup_failures_total",
			Help: "Listing reads served masked because the NDA status could not be read",
		}),
		ListingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealroom_listings_created_total",
			Help: "Total listings created",
		}),
	}
}

func (m *Metrics) IncrementDecision(rule string) {
	if m != nil {
		m.AccessDecisions.WithLabelValues(rule).Inc()
	}
}

func (m *Metrics) IncrementView(outcome string) {
	if m != nil {
		m.Views.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementNDALookupFailure() {
	if m != nil {
		m.NDALookupFailures.Inc()
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.ListingsCreated.Inc()
	}
}
