// Package hooks provides production-ready Hook and Logger implementations.
package hooks

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Skryldev/photo-quality/core"
)

// ── Structured logger adapter ─────────────────────────────────────────────────

// ZapLogger wraps a zap SugaredLogger to satisfy core.Logger.  Fields are
// alternating key/value pairs, as with zap's *w methods.
type ZapLogger struct {
	log *zap.SugaredLogger
}

// NewZapLogger creates a logger backed by zap.  A nil logger yields a no-op.
func NewZapLogger(l *zap.SugaredLogger) *ZapLogger {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	return &ZapLogger{log: l}
}

// NewProductionLogger builds a zap logger at level ("debug", "info", "warn",
// "error") writing JSON, or human-readable console output when format is
// "console".
func NewProductionLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func (z *ZapLogger) Debug(msg string, fields ...interface{}) { z.log.Debugw(msg, fields...) }
func (z *ZapLogger) Info(msg string, fields ...interface{})  { z.log.Infow(msg, fields...) }
func (z *ZapLogger) Warn(msg string, fields ...interface{})  { z.log.Warnw(msg, fields...) }
func (z *ZapLogger) Error(msg string, fields ...interface{}) { z.log.Errorw(msg, fields...) }

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs every check and every finished report.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforeCheck(_ context.Context, check core.CheckName, img *core.DecodedImage) {
	h.logger.Debug("check.start",
		"check", string(check),
		"format", string(img.Format()),
		"width", img.Width(),
		"height", img.Height(),
	)
}

func (h *LoggingHook) AfterCheck(_ context.Context, res core.CheckResult, d time.Duration) {
	h.logger.Debug("check.done",
		"check", string(res.Name),
		"status", string(res.Status),
		"score", res.Score,
		"duration_ms", d.Milliseconds(),
	)
}

func (h *LoggingHook) ObserveReport(_ context.Context, r *core.ValidationReport, d time.Duration) {
	h.logger.Info("validation.done",
		"image_id", r.ImageID,
		"status", string(r.OverallStatus),
		"score", r.OverallScore,
		"issues", r.TotalIssues,
		"duration_ms", d.Milliseconds(),
	)
}

// ── In-memory metrics collector ───────────────────────────────────────────────

// InMemoryMetrics accumulates metrics; safe for concurrent use.
type InMemoryMetrics struct {
	mu sync.RWMutex

	checkDurationsMs map[core.CheckName]int64 // cumulative ms per check
	checkCalls       map[core.CheckName]int64
	checkFailures    map[core.CheckName]int64
	errors           map[string]int64 // keyed by "stage/category"

	validations int64
	rejections  int64
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		checkDurationsMs: make(map[core.CheckName]int64),
		checkCalls:       make(map[core.CheckName]int64),
		checkFailures:    make(map[core.CheckName]int64),
		errors:           make(map[string]int64),
	}
}

func (m *InMemoryMetrics) RecordCheck(check core.CheckName, status core.Status, _ float64, d time.Duration) {
	m.mu.Lock()
	m.checkDurationsMs[check] += d.Milliseconds()
	m.checkCalls[check]++
	if status == core.StatusFail {
		m.checkFailures[check]++
	}
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordValidation(status core.Status, _ float64, _ time.Duration) {
	m.mu.Lock()
	m.validations++
	if status == core.StatusFail {
		m.rejections++
	}
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordError(stage string, category string) {
	m.mu.Lock()
	m.errors[stage+"/"+category]++
	m.mu.Unlock()
}

// Snapshot returns a copy of current metrics.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		CheckDurationsMs: make(map[core.CheckName]int64, len(m.checkDurationsMs)),
		CheckCalls:       make(map[core.CheckName]int64, len(m.checkCalls)),
		CheckFailures:    make(map[core.CheckName]int64, len(m.checkFailures)),
		Errors:           make(map[string]int64, len(m.errors)),
		Validations:      m.validations,
		Rejections:       m.rejections,
	}
	for k, v := range m.checkDurationsMs {
		snap.CheckDurationsMs[k] = v
	}
	for k, v := range m.checkCalls {
		snap.CheckCalls[k] = v
	}
	for k, v := range m.checkFailures {
		snap.CheckFailures[k] = v
	}
	for k, v := range m.errors {
		snap.Errors[k] = v
	}
	return snap
}

// MetricsSnapshot is an immutable point-in-time copy of metrics.
type MetricsSnapshot struct {
	CheckDurationsMs map[core.CheckName]int64
	CheckCalls       map[core.CheckName]int64
	CheckFailures    map[core.CheckName]int64
	Errors           map[string]int64
	Validations      int64
	Rejections       int64
}

// Tee fans every observation out to each collector in order.
type Tee []core.MetricsCollector

func (t Tee) RecordCheck(check core.CheckName, status core.Status, score float64, d time.Duration) {
	for _, c := range t {
		c.RecordCheck(check, status, score, d)
	}
}

func (t Tee) RecordValidation(status core.Status, score float64, d time.Duration) {
	for _, c := range t {
		c.RecordValidation(status, score, d)
	}
}

func (t Tee) RecordError(stage string, category string) {
	for _, c := range t {
		c.RecordError(stage, category)
	}
}

// ── Metrics hook ──────────────────────────────────────────────────────────────

// MetricsHook feeds check events into a MetricsCollector.
type MetricsHook struct {
	collector core.MetricsCollector
}

// NewMetricsHook creates a MetricsHook.
func NewMetricsHook(c core.MetricsCollector) *MetricsHook { return &MetricsHook{collector: c} }

func (h *MetricsHook) BeforeCheck(context.Context, core.CheckName, *core.DecodedImage) {}

func (h *MetricsHook) AfterCheck(_ context.Context, res core.CheckResult, d time.Duration) {
	h.collector.RecordCheck(res.Name, res.Status, res.Score, d)
}

var (
	_ core.Hook             = (*LoggingHook)(nil)
	_ core.ReportObserver   = (*LoggingHook)(nil)
	_ core.Hook             = (*MetricsHook)(nil)
	_ core.Logger           = (*ZapLogger)(nil)
	_ core.MetricsCollector = Tee(nil)
)
