package core

import (
	"context"
	"io"
	"time"

	"github.com/Skryldev/photo-quality/config"
)

// Decoder converts raw bytes into a DecodedImage.
// Implementations live in adapters/decoder/ and adapters/vips/.
type Decoder interface {
	// Decode reads from r and returns the pixel buffer plus raw metadata tags.
	Decode(ctx context.Context, r io.Reader) (*DecodedImage, error)
	// CanDecode reports whether this decoder handles the given format hint.
	CanDecode(format Format) bool
}

// Analyzer scores one quality aspect of a decoded image.  Analyze is total:
// a deficient image yields a low-scoring result, never an error.
// Implementations must be safe for concurrent use.
type Analyzer interface {
	Name() CheckName
	Analyze(img *DecodedImage, rules config.Rules) CheckResult
	// PassScore is the score at which this check's status flips to PASS under
	// rules.  It is the default "good" bar for recommendations.
	PassScore(rules config.Rules) float64
	// Advice is the remediation shown when the check scores below its bar.
	Advice(result CheckResult) string
}

// StorageAdapter persists validated images and retrieves them later.
// Implementations live in adapters/storage/.
type StorageAdapter interface {
	Put(ctx context.Context, key StorageKey, r io.Reader, meta map[string]string) error
	Get(ctx context.Context, key StorageKey) (io.ReadCloser, error)
	Delete(ctx context.Context, key StorageKey) error
	Exists(ctx context.Context, key StorageKey) (bool, error)
}

// MetricsCollector receives performance observations from the engine.
type MetricsCollector interface {
	RecordCheck(check CheckName, status Status, score float64, d time.Duration)
	RecordValidation(status Status, score float64, d time.Duration)
	RecordError(stage string, category string)
}

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Hook is an optional observer invoked around every check.
type Hook interface {
	BeforeCheck(ctx context.Context, check CheckName, img *DecodedImage)
	AfterCheck(ctx context.Context, result CheckResult, d time.Duration)
}

// ReportObserver is implemented by hooks that also want the finished report.
type ReportObserver interface {
	ObserveReport(ctx context.Context, report *ValidationReport, d time.Duration)
}

// CheckRunner is a minimal interface over pipeline.Runner so that core does
// not import the pipeline package (avoiding a circular dependency).
type CheckRunner interface {
	// Run executes every analyzer against img and returns results in
	// canonical order.  It only fails when ctx is cancelled.
	Run(ctx context.Context, img *DecodedImage, rules config.Rules, hooks []Hook) (Checks, error)
	Analyzers() []Analyzer
}

// Scorer folds check results into the overall verdict and user advice.
// scoring.Scorer implements it.
type Scorer interface {
	Aggregate(checks Checks, rules config.Rules) Verdict
	Recommend(checks Checks, verdict Verdict, rules config.Rules) []string
}

// Verdict is the aggregated outcome of all checks.
type Verdict struct {
	Status Status
	Score  float64
	Issues int
}

// Registry maps Format values to Decoder implementations.
type Registry interface {
	DecoderFor(format Format) (Decoder, bool)
	RegisterDecoder(format Format, d Decoder)
}
