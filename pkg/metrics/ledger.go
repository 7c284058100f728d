package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records audit ledger traffic.
type LedgerMetrics struct {
	appends  *prometheus.CounterVec
	dropped  prometheus.Counter
	duration *prometheus.HistogramVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	appends := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_appends_total",
		Help: "Ledger publish attempts by stream and result.",
	}, []string{"stream", "result"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_history_dropped_entries_total",
		Help: "Malformed ledger entries skipped while rebuilding history.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_rpc_duration_seconds",
		Help:    "Duration of ledger RPC operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	reg.MustRegister(appends, dropped, duration)
	return &LedgerMetrics{
		appends:  appends,
		dropped:  dropped,
		duration: duration,
	}
}

// IncAppend counts a publish; result is "ok", "error" or "offline".
func (m *LedgerMetrics) IncAppend(stream, result string) {
	if m == nil || m.appends == nil {
		return
	}
	m.appends.WithLabelValues(normalizeLabel(stream), normalizeLabel(result)).Inc()
}

func (m *LedgerMetrics) AddDropped(n int) {
	if m == nil || m.dropped == nil || n <= 0 {
		return
	}
	m.dropped.Add(float64(n))
}

func (m *LedgerMetrics) ObserveDuration(op string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(op)).Observe(d.Seconds())
}
