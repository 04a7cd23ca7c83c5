package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestSweepCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newSweepMetrics(registry, Config{
		ServiceName: "fakturo",
		Environment: "test",
	})

	m.IncJobRun("recurring_invoices")
	m.IncJobRun("recurring_invoices")
	m.IncJobError("purge_trash")
	m.IncTriggerSucceeded()
	m.IncTriggerFailed()
	m.AddInvoicesPurged(4)
	m.AddInvoicesPurged(0)
	m.IncNumberConflict()

	if got := testutil.ToFloat64(m.jobRuns.WithLabelValues("recurring_invoices")); got != 2 {
		t.Fatalf("expected 2 job runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobErrors.WithLabelValues("purge_trash")); got != 1 {
		t.Fatalf("expected 1 job error, got %v", got)
	}
	if got := testutil.ToFloat64(m.triggerOutcomes.WithLabelValues("succeeded")); got != 1 {
		t.Fatalf("expected 1 succeeded trigger, got %v", got)
	}
	if got := testutil.ToFloat64(m.invoicesPurged); got != 4 {
		t.Fatalf("expected 4 purged invoices, got %v", got)
	}
	if got := testutil.ToFloat64(m.numberConflicts); got != 1 {
		t.Fatalf("expected 1 number conflict, got %v", got)
	}
}

func TestSweepConstLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newSweepMetrics(registry, Config{
		ServiceName: "fakturo",
		Environment: "prod",
	})
	m.IncJobRun("recurring_invoices")
	m.ObserveJobDuration("recurring_invoices", 250*time.Millisecond)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, family := range families {
		byName[family.GetName()] = family
	}

	runs, ok := byName["fakturo_sweep_job_runs_total"]
	if !ok {
		t.Fatal("expected fakturo_sweep_job_runs_total to be registered")
	}
	labels := make(map[string]string)
	for _, pair := range runs.GetMetric()[0].GetLabel() {
		labels[pair.GetName()] = pair.GetValue()
	}
	if labels["service"] != "fakturo" || labels["env"] != "prod" || labels["job"] != "recurring_invoices" {
		t.Fatalf("unexpected labels %v", labels)
	}

	duration, ok := byName["fakturo_sweep_job_duration_seconds"]
	if !ok {
		t.Fatal("expected fakturo_sweep_job_duration_seconds to be registered")
	}
	if got := duration.GetMetric()[0].GetHistogram().GetSampleCount(); got != 1 {
		t.Fatalf("expected 1 duration sample, got %d", got)
	}
}

func TestNilSweepMetricsAreSafe(t *testing.T) {
	var m *SweepMetrics
	m.IncJobRun("recurring_invoices")
	m.ObserveJobDuration("recurring_invoices", time.Second)
	m.IncJobError("purge_trash")
	m.IncTriggerSucceeded()
	m.IncTriggerFailed()
	m.AddInvoicesPurged(1)
	m.IncNumberConflict()
}
