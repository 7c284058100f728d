package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AdmissionMetrics records product admission outcomes and penalty escalation.
type AdmissionMetrics struct {
	outcomes  *prometheus.CounterVec
	penalties *prometheus.CounterVec
	scoring   prometheus.Histogram
}

// NewAdmissionMetrics registers the admission metrics on the provided registerer.
func NewAdmissionMetrics(reg prometheus.Registerer) *AdmissionMetrics {
	if reg == nil {
		return &AdmissionMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admission_outcomes_total",
		Help: "Product submissions by admission outcome.",
	}, []string{"outcome"})
	penalties := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admission_penalties_total",
		Help: "Penalty increments, split by whether the supplier became blocked.",
	}, []string{"blocked"})
	scoring := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "admission_scoring_seconds",
		Help:    "Time spent scoring a product.",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	})
	reg.MustRegister(outcomes, penalties, scoring)
	return &AdmissionMetrics{
		outcomes:  outcomes,
		penalties: penalties,
		scoring:   scoring,
	}
}

// IncOutcome counts one submission; outcome is a product status or "blocked".
func (m *AdmissionMetrics) IncOutcome(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *AdmissionMetrics) IncPenalty(blocked bool) {
	if m == nil || m.penalties == nil {
		return
	}
	label := "false"
	if blocked {
		label = "true"
	}
	m.penalties.WithLabelValues(label).Inc()
}

func (m *AdmissionMetrics) ObserveScoring(d time.Duration) {
	if m == nil || m.scoring == nil {
		return
	}
	m.scoring.Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
