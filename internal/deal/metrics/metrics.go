package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the deal stage engine.
type Metrics struct {
	StageTransitions   *prometheus.CounterVec
	DDProjects         *prometheus.CounterVec
	ActivitiesAppended *prometheus.CounterVec
	PublishFailures    prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		StageTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dealroom_deal_stage_transitions_total",
			Help: "Transaction stage changes by target stage and path",
		}, []string{"stage", "path"}), // path: "advance", "dd_project", "correction"

		DDProjects: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dealroom_deal_dd_projects_total",
			Help: "DD project creation attempts by outcome",
		}, []string{"outcome"}), // outcome: "created", "already_exists", "error"

		ActivitiesAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dealroom_deal_activities_total",
			Help: "Activities appended to transaction logs by type",
		}, []string{"type"}),

		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealroom_deal_activity_publish_failures_total",
			Help: "Activities that could not be fanned out to the event stream",
		}),
	}
}

func (m *Metrics) IncrementStageTransition(stage, path string) {
	if m != nil {
		m.StageTransitions.WithLabelValues(stage, path).Inc()
	}
}

func (m *Metrics) IncrementDDProject(outcome string) {
	if m != nil {
		m.DDProjects.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementActivity(activityType string) {
	if m != nil {
		m.ActivitiesAppended.WithLabelValues(activityType).Inc()
	}
}

func (m *Metrics) IncrementPublishFailure() {
	if m != nil {
		m.PublishFailures.Inc()
	}
}
