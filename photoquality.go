// Package photoquality scores civic photographs for documentation quality.
//
// A Validator decodes an image, runs the blur, resolution, brightness,
// exposure and metadata checks concurrently, folds them into a weighted
// 0–100 score with a PASS/FAIL verdict and returns actionable
// recommendations.
package photoquality

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/Skryldev/photo-quality/adapters/decoder"
	"github.com/Skryldev/photo-quality/adapters/storage"
	"github.com/Skryldev/photo-quality/archive"
	"github.com/Skryldev/photo-quality/config"
	"github.com/Skryldev/photo-quality/core"
	apperrors "github.com/Skryldev/photo-quality/errors"
	"github.com/Skryldev/photo-quality/hooks"
	"github.com/Skryldev/photo-quality/pipeline"
	"github.com/Skryldev/photo-quality/scoring"
)

// Re-export the status values for convenience.
const (
	Pass = core.StatusPass
	Fail = core.StatusFail
)

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() config.Config { return config.Default() }

// DefaultRules returns the baseline validation rules.
func DefaultRules() config.Rules { return config.DefaultRules() }

// Option customises a Validator.
type Option func(*options)

type options struct {
	engine   []core.EngineOption
	store    core.StorageAdapter
	runner   *pipeline.Runner
	decoders []func(core.Registry)
	// vips is set when the caller supplies its own libvips backend.
	vips bool
}

// startVips starts a libvips backend, registers it on reg and returns its
// shutdown.  It is nil unless the binary is built with the vips tag.
var startVips func(cfg config.Config, reg core.Registry) (shutdown func())

// WithIDGenerator replaces the image_id generator, e.g. with
// core.FixedIDGenerator for reproducible reports.
func WithIDGenerator(g core.IDGenerator) Option {
	return func(o *options) { o.engine = append(o.engine, core.WithIDGenerator(g)) }
}

// WithStorage archives through store instead of the adapter named by
// Config.Storage.
func WithStorage(store core.StorageAdapter) Option {
	return func(o *options) { o.store = store }
}

// WithAnalyzers replaces the standard check set.
func WithAnalyzers(a ...core.Analyzer) Option {
	return func(o *options) { o.runner = pipeline.New(a...) }
}

// WithDecoder registers d for format f on top of the built-in decoders.
func WithDecoder(f core.Format, d core.Decoder) Option {
	return func(o *options) {
		o.decoders = append(o.decoders, func(reg core.Registry) { reg.RegisterDecoder(f, d) })
	}
}

// Validator is the primary entry point.
type Validator struct {
	inner   *core.Engine
	reg     *core.DefaultRegistry
	stats   *hooks.StatsCollector
	metrics *hooks.InMemoryMetrics
	archive *archive.Archive

	shutdown func()
}

// New creates a fully wired Validator.  The pure-Go decoders are always
// registered; with Config.Backend "vips" libvips takes over the formats it
// handles, which requires a build with the vips tag.  Invalid rules are
// refused with an error satisfying errors.IsInvalidConfig.
func New(cfg config.Config, opts ...Option) (*Validator, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	v := &Validator{
		reg:     core.NewRegistry(),
		stats:   hooks.NewStatsCollector(),
		metrics: hooks.NewInMemoryMetrics(),
	}
	decoder.RegisterAll(v.reg)
	if cfg.Backend == config.BackendVips && !o.vips {
		if startVips == nil {
			return nil, apperrors.InvalidConfig("photoquality.new",
				errors.New(`backend "vips" is not compiled in; rebuild with -tags vips`))
		}
		v.shutdown = startVips(cfg, v.reg)
	}
	for _, register := range o.decoders {
		register(v.reg)
	}

	runner := o.runner
	if runner == nil {
		runner = pipeline.Standard()
	}
	inner, err := core.NewEngine(cfg, v.reg, runner, scoring.New(runner.Analyzers()), o.engine...)
	if err != nil {
		v.Close()
		return nil, err
	}
	inner.AddHook(v.stats)
	inner.AddHook(hooks.NewMetricsHook(v.metrics))
	inner.SetMetrics(v.metrics)
	v.inner = inner

	store := o.store
	if store == nil {
		if store, err = storageFor(cfg); err != nil {
			v.Close()
			return nil, err
		}
	}
	if store != nil {
		v.archive = archive.New(store, cfg.MaxRetries, cfg.RetryDelay)
	}
	return v, nil
}

// storageFor builds the adapter selected by cfg.Storage; nil for "none".
func storageFor(cfg config.Config) (core.StorageAdapter, error) {
	switch cfg.Storage {
	case config.StorageLocal:
		return storage.NewLocal(cfg.Local.RootDir, os.FileMode(cfg.Local.Permissions))
	case config.StorageS3:
		client, err := storage.NewAWSClient(cfg.S3)
		if err != nil {
			return nil, err
		}
		return storage.NewS3(client, cfg.S3.Bucket)
	}
	return nil, nil
}

// Close stops the worker pool and releases a libvips backend started by New.
func (v *Validator) Close() {
	if v.inner != nil {
		v.inner.Stop()
	}
	if v.shutdown != nil {
		v.shutdown()
		v.shutdown = nil
	}
}

// SetLogger attaches a structured logger.
func (v *Validator) SetLogger(l core.Logger) { v.inner.SetLogger(l) }

// SetMetrics attaches a metrics collector next to the built-in one behind
// Metrics.  Per-check observations only reach m through a MetricsHook.
func (v *Validator) SetMetrics(m core.MetricsCollector) {
	v.inner.SetMetrics(hooks.Tee{v.metrics, m})
}

// AddHook registers an observer for check events.
func (v *Validator) AddHook(h core.Hook) { v.inner.AddHook(h) }

// RegisterDecoder registers a custom decoder for the given format.
func (v *Validator) RegisterDecoder(f core.Format, d core.Decoder) { v.reg.RegisterDecoder(f, d) }

// Rules returns the rules every validation is scored against.
func (v *Validator) Rules() config.Rules { return v.inner.Rules() }

// Start starts the background worker pool.
func (v *Validator) Start() { v.inner.Start() }

// Stop shuts down the worker pool.
func (v *Validator) Stop() { v.inner.Stop() }

// Validate scores raw image bytes.  filename only contributes to image_id.
func (v *Validator) Validate(ctx context.Context, raw []byte, filename string) (*core.ValidationReport, error) {
	return v.inner.Validate(ctx, raw, filename)
}

// ValidateReader drains r, bounded by Config.MaxImageBytes, and validates it.
func (v *Validator) ValidateReader(ctx context.Context, r io.Reader, filename string) (*core.ValidationReport, error) {
	return v.inner.ValidateReader(ctx, r, filename)
}

// ValidateFile reads and validates the file at path.
func (v *Validator) ValidateFile(ctx context.Context, path string) (*core.ValidationReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryInput, "validate.open", err)
	}
	defer f.Close()
	return v.inner.ValidateReader(ctx, f, path)
}

// Batch validates multiple sources concurrently.  Results and errors are
// index-aligned with sources.
func (v *Validator) Batch(ctx context.Context, sources []core.Source) ([]*core.ValidationReport, []error) {
	return v.inner.Batch(ctx, sources)
}

// Submit enqueues an async job for the worker pool.
func (v *Validator) Submit(job core.Job) error { return v.inner.Submit(job) }

// ValidateAndStore validates raw and files it, with its report, under the
// accepted or rejected bucket.  Unreadable input is not stored.
func (v *Validator) ValidateAndStore(ctx context.Context, raw []byte, filename string) (*core.ValidationReport, archive.Record, error) {
	if v.archive == nil {
		return nil, archive.Record{}, apperrors.New(apperrors.CategoryStorage, "validate.store", apperrors.ErrStorageUnavailable)
	}
	report, err := v.inner.Validate(ctx, raw, filename)
	if err != nil {
		return nil, archive.Record{}, err
	}
	rec, err := v.archive.Store(ctx, raw, report)
	if err != nil {
		return report, archive.Record{}, err
	}
	return report, rec, nil
}

// Archive returns the archive, or nil when no storage is configured.
func (v *Validator) Archive() *archive.Archive { return v.archive }

// Summary returns running statistics over every report produced.
func (v *Validator) Summary() hooks.Stats { return v.stats.Snapshot() }

// Metrics returns per-check timings and failure counts plus error counts
// keyed by "stage/category".
func (v *Validator) Metrics() hooks.MetricsSnapshot { return v.metrics.Snapshot() }

// Stats returns lightweight engine counters.
func (v *Validator) Stats() (validated, rejected, errors int64) {
	return v.inner.ValidatedCount(), v.inner.RejectedCount(), v.inner.ErrorCount()
}

// ── Source constructors ────────────────────────────────────────────────────────

// FromBytes creates a Source for Batch and Submit.
func FromBytes(raw []byte, name string) core.Source { return core.Source{Data: raw, Name: name} }
