package metrics

import "github.com/prometheus/client_golang/prometheus"

// SettlementMetrics records payment signatures and terminal transitions.
type SettlementMetrics struct {
	signatures *prometheus.CounterVec
	settled    *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	signatures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_signatures_total",
		Help: "Accepted payment signature updates by slot.",
	}, []string{"slot"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_settlements_total",
		Help: "Payments reaching a terminal status.",
	}, []string{"status"})
	reg.MustRegister(signatures, settled)
	return &SettlementMetrics{signatures: signatures, settled: settled}
}

func (m *SettlementMetrics) IncSignature(slot string) {
	if m == nil || m.signatures == nil {
		return
	}
	m.signatures.WithLabelValues(normalizeLabel(slot)).Inc()
}

func (m *SettlementMetrics) IncSettled(status string) {
	if m == nil || m.settled == nil {
		return
	}
	m.settled.WithLabelValues(normalizeLabel(status)).Inc()
}
