package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestAdmissionMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAdmissionMetrics(reg)
	m.IncOutcome("warning")
	m.IncOutcome("warning")
	m.IncOutcome("")
	m.IncPenalty(true)
	m.ObserveScoring(2 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "admission_outcomes_total", "outcome", "warning"); err != nil {
		t.Fatalf("fetch outcome: %v", err)
	} else if got != 2 {
		t.Fatalf("expected warning=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "admission_outcomes_total", "outcome", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unknown=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "admission_penalties_total", "blocked", "true"); err != nil || got != 1 {
		t.Fatalf("expected blocked penalty=1, got %f (%v)", got, err)
	}
	if got := testutil.CollectAndCount(m.scoring); got != 1 {
		t.Fatalf("expected scoring histogram registered, got %d", got)
	}
}

func TestLedgerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)
	m.IncAppend("orders", "ok")
	m.IncAppend("orders", "offline")
	m.AddDropped(3)
	m.AddDropped(0)
	m.ObserveDuration("publish", 30*time.Millisecond)

	if got := testutil.ToFloat64(m.appends.WithLabelValues("orders", "offline")); got != 1 {
		t.Fatalf("expected offline append=1, got %f", got)
	}
	if got := testutil.ToFloat64(m.dropped); got != 3 {
		t.Fatalf("expected dropped=3, got %f", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchHistogramSum(mfs, "ledger_rpc_duration_seconds", "op", "publish"); err != nil || got <= 0 {
		t.Fatalf("expected publish duration sum > 0, got %f (%v)", got, err)
	}
}

func TestSettlementMetrics(t *testing.T) {
	m := NewSettlementMetrics(prometheus.NewRegistry())
	m.IncSignature("admin")
	m.IncSettled("REFUNDED")

	if got := testutil.ToFloat64(m.signatures.WithLabelValues("admin")); got != 1 {
		t.Fatalf("expected admin signature=1, got %f", got)
	}
	if got := testutil.ToFloat64(m.settled.WithLabelValues("REFUNDED")); got != 1 {
		t.Fatalf("expected refunded=1, got %f", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var a *AdmissionMetrics
	a.IncOutcome("success")
	a.IncPenalty(false)
	a.ObserveScoring(time.Second)

	l := NewLedgerMetrics(nil)
	l.IncAppend("orders", "ok")
	l.AddDropped(1)

	var s *SettlementMetrics
	s.IncSettled("RELEASED")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
