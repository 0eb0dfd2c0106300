package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides Prometheus metrics for sessionforge commands. A CLI run
// is short-lived, so metrics are not served; they are written to a
// textfile at shutdown when a path is configured.
type Metrics struct {
	config MetricsConfig

	// Run metrics
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	// Stage metrics
	stageDuration *prometheus.HistogramVec

	// Validation metrics
	violations *prometheus.CounterVec
	warnings   *prometheus.CounterVec

	// Error metrics
	errorsByClass *prometheus.CounterVec

	// Converter metrics
	templatesProcessed *prometheus.CounterVec
	templateRewrites   *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of command runs completed",
			},
			[]string{"command", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of command runs in seconds",
				Buckets:   buckets,
			},
			[]string{"command"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   buckets,
			},
			[]string{"stage"},
		),
		violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schema_violations_total",
				Help:      "Total number of schema violations by constraint keyword",
			},
			[]string{"constraint"},
		),
		warnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "warnings_total",
				Help:      "Total number of warnings by source",
			},
			[]string{"source"},
		),
		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of failed runs by error class",
			},
			[]string{"class"},
		),
		templatesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "templates_processed_total",
				Help:      "Total number of template files processed by outcome",
			},
			[]string{"status"},
		),
		templateRewrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "template_rewrites_total",
				Help:      "Total number of legacy syntax rewrites by category",
			},
			[]string{"category"},
		),
	}

	registry.MustRegister(
		m.runsCompleted,
		m.runDuration,
		m.stageDuration,
		m.violations,
		m.warnings,
		m.errorsByClass,
		m.templatesProcessed,
		m.templateRewrites,
	)

	return m, nil
}

// enabled reports whether collectors were created.
func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// RecordRun records a completed command run.
func (m *Metrics) RecordRun(command, status string, duration time.Duration) {
	if !m.enabled() {
		return
	}
	m.runsCompleted.WithLabelValues(command, status).Inc()
	m.runDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordStage records the duration of a pipeline stage.
func (m *Metrics) RecordStage(stage string, duration time.Duration) {
	if !m.enabled() {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordViolation records one schema violation.
func (m *Metrics) RecordViolation(constraint string) {
	if !m.enabled() {
		return
	}
	if constraint == "" {
		constraint = "unknown"
	}
	m.violations.WithLabelValues(constraint).Inc()
}

// RecordWarnings records n warnings from source (semantic, policy).
func (m *Metrics) RecordWarnings(source string, n int) {
	if !m.enabled() || n == 0 {
		return
	}
	m.warnings.WithLabelValues(source).Add(float64(n))
}

// RecordError records a failed run by error class.
func (m *Metrics) RecordError(errorClass string) {
	if !m.enabled() {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
}

// RecordTemplate records one processed template file.
func (m *Metrics) RecordTemplate(status string) {
	if !m.enabled() {
		return
	}
	m.templatesProcessed.WithLabelValues(status).Inc()
}

// RecordRewrites records n rewrites of a category.
func (m *Metrics) RecordRewrites(category string, n int) {
	if !m.enabled() || n == 0 {
		return
	}
	m.templateRewrites.WithLabelValues(category).Add(float64(n))
}

// Registry returns the underlying registry, nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes all metrics to the configured textfile path. It is
// a no-op when metrics are disabled or no path is set.
func (m *Metrics) WriteTextfile() error {
	if !m.enabled() || m.config.TextfilePath == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.config.TextfilePath, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
