package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Skryldev/photo-quality/config"
	apperrors "github.com/Skryldev/photo-quality/errors"
	"github.com/Skryldev/photo-quality/utils"
)

// EngineOption customises an Engine at construction time.
type EngineOption func(*Engine)

// WithIDGenerator replaces the image_id generator.  Use FixedIDGenerator to
// get byte-identical reports for identical input.
func WithIDGenerator(g IDGenerator) EngineOption {
	return func(e *Engine) {
		if g != nil {
			e.newID = g
		}
	}
}

// Engine is the central orchestrator: decode, analyze, aggregate, recommend.
// It is safe for concurrent use; its rules never change after NewEngine.
type Engine struct {
	cfg      config.Config
	registry Registry
	runner   CheckRunner
	scorer   Scorer
	newID    IDGenerator

	// Set before the first Validate call; not guarded.
	hooks   []Hook
	logger  Logger
	metrics MetricsCollector

	// Worker pool.
	jobQueue chan Job
	wg       sync.WaitGroup
	once     sync.Once
	stopOnce sync.Once
	shutdown chan struct{}

	validatedCount int64
	rejectedCount  int64
	errorCount     int64
}

// NewEngine validates cfg and returns an Engine.  Invalid rules are refused
// with an error satisfying errors.IsInvalidConfig.  The engine keeps its own
// copy of cfg.Rules; later changes to cfg do not reach it.  Call Start() before
// submitting async jobs; Validate and Batch work without it.
func NewEngine(cfg config.Config, reg Registry, runner CheckRunner, scorer Scorer, opts ...EngineOption) (*Engine, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if reg == nil || runner == nil || scorer == nil {
		return nil, apperrors.InvalidConfig("engine.new", errors.New("engine: missing collaborator"))
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	cfg.Rules = cfg.Rules.Clone()
	e := &Engine{
		cfg:      cfg,
		registry: reg,
		runner:   runner,
		scorer:   scorer,
		newID:    DefaultIDGenerator,
		logger:   nopLogger{},
		metrics:  nopMetrics{},
		jobQueue: make(chan Job, queueSize),
		shutdown: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// SetLogger attaches a structured logger.
func (e *Engine) SetLogger(l Logger) {
	if l != nil {
		e.logger = l
	}
}

// SetMetrics attaches a metrics collector.
func (e *Engine) SetMetrics(m MetricsCollector) {
	if m != nil {
		e.metrics = m
	}
}

// AddHook registers a check observer.  Hooks that also implement
// ReportObserver receive every finished report.
func (e *Engine) AddHook(h Hook) { e.hooks = append(e.hooks, h) }

// Registry returns the decoder registry.
func (e *Engine) Registry() Registry { return e.registry }

// Rules returns a copy of the rules every validation is scored against.
func (e *Engine) Rules() config.Rules { return e.cfg.Rules.Clone() }

// Config returns a copy of the engine configuration.
func (e *Engine) Config() config.Config {
	cfg := e.cfg
	cfg.Rules = cfg.Rules.Clone()
	return cfg
}

// Analyzers returns the analyzers in report order.
func (e *Engine) Analyzers() []Analyzer { return e.runner.Analyzers() }

// Start launches the worker pool.  It is idempotent.
func (e *Engine) Start() {
	e.once.Do(func() {
		for i := 0; i < e.workerCount(); i++ {
			e.wg.Add(1)
			go e.worker()
		}
	})
}

// Stop shuts down all workers.  Jobs still queued are dropped.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.shutdown) })
	e.wg.Wait()
}

// Validate scores raw image bytes.  filename is only used to build the
// image_id.  Undecodable input yields an error satisfying
// errors.IsUnreadable and no report; a cancelled ctx yields a pipeline error.
func (e *Engine) Validate(ctx context.Context, raw []byte, filename string) (*ValidationReport, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, e.fail("validate", apperrors.Wrap(apperrors.CategoryPipeline, "validate", err))
	}

	img, err := e.decode(ctx, raw)
	if err != nil {
		return nil, e.fail("decode", err)
	}

	checks, err := e.runner.Run(ctx, img, e.cfg.Rules, e.hooks)
	if err != nil {
		return nil, e.fail("analyze", apperrors.Wrap(apperrors.CategoryPipeline, "validate.analyze", err))
	}

	verdict := e.scorer.Aggregate(checks, e.cfg.Rules)
	report := &ValidationReport{
		OverallStatus:   verdict.Status,
		OverallScore:    verdict.Score,
		TotalIssues:     verdict.Issues,
		ImageID:         e.newID(filename),
		Checks:          checks,
		Recommendations: e.scorer.Recommend(checks, verdict, e.cfg.Rules),
	}

	e.observe(ctx, report, time.Since(start))
	return report, nil
}

// ValidateReader drains r (bounded by MaxImageBytes) and validates the bytes.
func (e *Engine) ValidateReader(ctx context.Context, r io.Reader, filename string) (*ValidationReport, error) {
	if e.cfg.MaxImageBytes > 0 {
		r = &utils.LimitedReader{R: r, Max: e.cfg.MaxImageBytes}
	}
	buf, err := utils.DrainReader(ctx, r, e.cfg.ChunkSize)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInputTooLarge):
			err = apperrors.Unreadable("validate.read", err)
		case ctx.Err() != nil:
			err = apperrors.Wrap(apperrors.CategoryPipeline, "validate.read", err)
		default:
			err = apperrors.Wrap(apperrors.CategoryInput, "validate.read", err)
		}
		return nil, e.fail("read", err)
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)
	return e.Validate(ctx, raw, filename)
}

// Submit enqueues an async job.  Returns ErrWorkerPoolFull if the queue is full.
func (e *Engine) Submit(job Job) error {
	select {
	case e.jobQueue <- job:
		return nil
	default:
		return apperrors.New(apperrors.CategoryPipeline, "submit", apperrors.ErrWorkerPoolFull)
	}
}

// Batch validates multiple sources concurrently (fan-out / fan-in).  Results
// and errors are index-aligned with sources.
func (e *Engine) Batch(ctx context.Context, sources []Source) ([]*ValidationReport, []error) {
	reports := make([]*ValidationReport, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	g.SetLimit(e.workerCount())
	for i, src := range sources {
		g.Go(func() error {
			reports[i], errs[i] = e.Validate(ctx, src.Data, src.Name)
			return nil
		})
	}
	_ = g.Wait()
	return reports, errs
}

// ValidatedCount returns the number of reports produced.
func (e *Engine) ValidatedCount() int64 { return atomic.LoadInt64(&e.validatedCount) }

// RejectedCount returns the number of reports with a FAIL verdict.
func (e *Engine) RejectedCount() int64 { return atomic.LoadInt64(&e.rejectedCount) }

// ErrorCount returns the number of calls that ended without a report.
func (e *Engine) ErrorCount() int64 { return atomic.LoadInt64(&e.errorCount) }

// ── internals ─────────────────────────────────────────────────────────────────

func (e *Engine) decode(ctx context.Context, raw []byte) (*DecodedImage, error) {
	const op = "validate.decode"
	if len(raw) == 0 {
		return nil, apperrors.Unreadable(op, apperrors.ErrEmptyInput)
	}
	if limit := e.cfg.MaxImageBytes; limit > 0 && int64(len(raw)) > limit {
		return nil, apperrors.Unreadable(op,
			fmt.Errorf("%w: %d > %d bytes", apperrors.ErrInputTooLarge, len(raw), limit))
	}

	format := Format(utils.DetectFormat(raw))
	dec, ok := e.registry.DecoderFor(format)
	if !ok {
		return nil, apperrors.Unreadable(op, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format))
	}

	img, err := dec.Decode(ctx, utils.BytesReader(raw))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperrors.Wrap(apperrors.CategoryPipeline, op, ctxErr)
		}
		return nil, apperrors.Unreadable(op, err)
	}
	return img, nil
}

func (e *Engine) observe(ctx context.Context, report *ValidationReport, d time.Duration) {
	atomic.AddInt64(&e.validatedCount, 1)
	if !report.Passed() {
		atomic.AddInt64(&e.rejectedCount, 1)
	}
	e.metrics.RecordValidation(report.OverallStatus, report.OverallScore, d)
	for _, h := range e.hooks {
		if o, ok := h.(ReportObserver); ok {
			o.ObserveReport(ctx, report, d)
		}
	}
}

func (e *Engine) fail(stage string, err error) error {
	atomic.AddInt64(&e.errorCount, 1)
	category := "unknown"
	var pe *apperrors.ProcessingError
	if errors.As(err, &pe) {
		category = string(pe.Category)
	}
	e.metrics.RecordError(stage, category)
	e.logger.Warn("validation.error", "stage", stage, "category", category, "error", err.Error())
	return err
}

func (e *Engine) workerCount() int {
	if e.cfg.WorkerCount > 0 {
		return e.cfg.WorkerCount
	}
	return runtime.NumCPU()
}

// ── worker pool internals ──────────────────────────────────────────────────────

func (e *Engine) worker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.shutdown:
			return
		case job, ok := <-e.jobQueue:
			if !ok {
				return
			}
			e.processJob(job)
		}
	}
}

func (e *Engine) processJob(job Job) {
	ctx := job.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := e.cfg.JobTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	report, err := e.Validate(ctx, job.Source.Data, job.Source.Name)
	if job.ResultCh != nil {
		job.ResultCh <- JobResult{JobID: job.ID, Report: report, Err: err, Duration: time.Since(start)}
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type nopMetrics struct{}

func (nopMetrics) RecordCheck(CheckName, Status, float64, time.Duration) {}
func (nopMetrics) RecordValidation(Status, float64, time.Duration)      {}
func (nopMetrics) RecordError(string, string)                           {}
