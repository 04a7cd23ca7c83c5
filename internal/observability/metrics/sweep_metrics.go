package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels stamped on every sweep metric.
type Config struct {
	ServiceName string
	Environment string
}

// SweepMetrics captures daily-sweep health signals: job cadence, per-schedule
// trigger outcomes and trash purge volume.
type SweepMetrics struct {
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobErrors       *prometheus.CounterVec
	triggerOutcomes *prometheus.CounterVec
	invoicesPurged  prometheus.Counter
	numberConflicts prometheus.Counter
}

var (
	sweepMetricsOnce sync.Once
	sweepMetrics     *SweepMetrics
)

// Sweep returns the singleton sweep metrics registry.
func Sweep() *SweepMetrics {
	return SweepWithConfig(Config{})
}

// SweepWithConfig returns the singleton sweep metrics registry using config labels.
func SweepWithConfig(cfg Config) *SweepMetrics {
	sweepMetricsOnce.Do(func() {
		sweepMetrics = newSweepMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return sweepMetrics
}

// ResetSweepMetricsForTest resets the sweep metrics singleton for tests.
func ResetSweepMetricsForTest() {
	sweepMetricsOnce = sync.Once{}
	sweepMetrics = nil
}

func newSweepMetrics(registerer prometheus.Registerer, cfg Config) *SweepMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "fakturo"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &SweepMetrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "fakturo_sweep_job_runs_total",
			Help:        "Sweep job runs by name.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "fakturo_sweep_job_duration_seconds",
			Help:        "Sweep job latency.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "fakturo_sweep_job_errors_total",
			Help:        "Sweep job errors by job name.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		triggerOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "fakturo_sweep_triggers_total",
			Help:        "Recurring schedule trigger outcomes.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		invoicesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "fakturo_sweep_invoices_purged_total",
			Help:        "Trashed documents permanently removed by the retention sweep.",
			ConstLabels: constLabels,
		}),
		numberConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "fakturo_number_conflicts_total",
			Help:        "Document-number uniqueness conflicts that forced a retry.",
			ConstLabels: constLabels,
		}),
	}

	registerer.MustRegister(
		m.jobRuns,
		m.jobDuration,
		m.jobErrors,
		m.triggerOutcomes,
		m.invoicesPurged,
		m.numberConflicts,
	)

	return m
}

func (m *SweepMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SweepMetrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SweepMetrics) IncJobError(job string) {
	if m == nil {
		return
	}
	m.jobErrors.WithLabelValues(job).Inc()
}

func (m *SweepMetrics) IncTriggerSucceeded() {
	if m == nil {
		return
	}
	m.triggerOutcomes.WithLabelValues("succeeded").Inc()
}

func (m *SweepMetrics) IncTriggerFailed() {
	if m == nil {
		return
	}
	m.triggerOutcomes.WithLabelValues("failed").Inc()
}

func (m *SweepMetrics) AddInvoicesPurged(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.invoicesPurged.Add(float64(count))
}

func (m *SweepMetrics) IncNumberConflict() {
	if m == nil {
		return
	}
	m.numberConflicts.Inc()
}
