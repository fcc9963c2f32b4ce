package hooks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Skryldev/photo-quality/core"
)

// PrometheusMetrics is a core.MetricsCollector backed by its own registry,
// so several engines (or tests) can coexist in one process.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	checksTotal        *prometheus.CounterVec
	checkScore         *prometheus.HistogramVec
	checkDuration      *prometheus.HistogramVec
	validationsTotal   *prometheus.CounterVec
	overallScore       prometheus.Histogram
	validationDuration prometheus.Histogram
	errorsTotal        *prometheus.CounterVec
}

var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 65, 70, 80, 90, 100}

// NewPrometheusMetrics registers the photo quality metrics on a fresh registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &PrometheusMetrics{
		registry: reg,
		checksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photoqc_checks_total",
				Help: "Total number of quality checks run",
			},
			[]string{"check", "status"},
		),
		checkScore: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "photoqc_check_score",
				Help:    "Distribution of per-check scores",
				Buckets: scoreBuckets,
			},
			[]string{"check"},
		),
		checkDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "photoqc_check_duration_seconds",
				Help:    "Time taken by each quality check",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"check"},
		),
		validationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photoqc_validations_total",
				Help: "Total number of validation reports produced",
			},
			[]string{"status"},
		),
		overallScore: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "photoqc_overall_score",
				Help:    "Distribution of overall photo scores",
				Buckets: scoreBuckets,
			},
		),
		validationDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "photoqc_validation_duration_seconds",
				Help:    "Time taken to validate a photo end to end",
				Buckets: prometheus.DefBuckets,
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photoqc_errors_total",
				Help: "Total number of validations that ended without a report",
			},
			[]string{"stage", "category"},
		),
	}
}

func (p *PrometheusMetrics) RecordCheck(check core.CheckName, status core.Status, score float64, d time.Duration) {
	p.checksTotal.WithLabelValues(string(check), string(status)).Inc()
	p.checkScore.WithLabelValues(string(check)).Observe(score)
	p.checkDuration.WithLabelValues(string(check)).Observe(d.Seconds())
}

func (p *PrometheusMetrics) RecordValidation(status core.Status, score float64, d time.Duration) {
	p.validationsTotal.WithLabelValues(string(status)).Inc()
	p.overallScore.Observe(score)
	p.validationDuration.Observe(d.Seconds())
}

func (p *PrometheusMetrics) RecordError(stage string, category string) {
	p.errorsTotal.WithLabelValues(stage, category).Inc()
}

// Gatherer exposes the registry for an HTTP handler or a push gateway.
func (p *PrometheusMetrics) Gatherer() prometheus.Gatherer { return p.registry }

// WriteTextfile writes the current metrics in the text exposition format,
// for node_exporter's textfile collector.
func (p *PrometheusMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}

var _ core.MetricsCollector = (*PrometheusMetrics)(nil)
