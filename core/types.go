package core

import (
	"bytes"
	"context"
	"time"

	json "github.com/goccy/go-json"
)

// Format identifies an image codec.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatWebP    Format = "webp"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
	FormatUnknown Format = "unknown"
)

// Status is the verdict of a single check or of a whole report.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// CheckName identifies one of the quality checks.
type CheckName string

const (
	CheckBlur       CheckName = "blur"
	CheckResolution CheckName = "resolution"
	CheckBrightness CheckName = "brightness"
	CheckExposure   CheckName = "exposure"
	CheckMetadata   CheckName = "metadata"
)

// Tags decoders add, as decimal degrees, when an image carries GPS coordinates.
const (
	TagGPSLatitude  = "GPSLatitudeDecimal"
	TagGPSLongitude = "GPSLongitudeDecimal"
)

// CheckOrder is the canonical order of checks in a report.
var CheckOrder = []CheckName{CheckBlur, CheckResolution, CheckBrightness, CheckExposure, CheckMetadata}

// CheckResult is the outcome of one analyzer for one image.
type CheckResult struct {
	Name    CheckName      `json:"-"`
	Status  Status         `json:"status"`
	Score   float64        `json:"score"`
	Weight  int            `json:"weight"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// Passed reports whether the check passed.
func (r CheckResult) Passed() bool { return r.Status == StatusPass }

// Checks is the ordered collection of check results in a report.  It encodes
// as a JSON object keyed by check name, preserving order.
type Checks []CheckResult

// Get returns the result for name.
func (c Checks) Get(name CheckName) (CheckResult, bool) {
	for _, r := range c {
		if r.Name == name {
			return r, true
		}
	}
	return CheckResult{}, false
}

func (c Checks) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(r.Name))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ValidationReport is returned to the caller after all checks complete.
type ValidationReport struct {
	OverallStatus   Status   `json:"overall_status"`
	OverallScore    float64  `json:"overall_score"`
	TotalIssues     int      `json:"total_issues"`
	ImageID         string   `json:"image_id"`
	Checks          Checks   `json:"checks"`
	Recommendations []string `json:"recommendations"`
}

// Passed reports whether the image was accepted.
func (r *ValidationReport) Passed() bool { return r.OverallStatus == StatusPass }

// Source abstracts where raw bytes come from (reader, file path, URL, etc.).
type Source struct {
	Data []byte
	Name string // optional logical name / filename hint
}

// Job encapsulates a single unit of work for the worker pool.
type Job struct {
	ID     string
	Ctx    context.Context //nolint:containedctx // intentional for async jobs
	Source Source
	// Result channel; nil for fire-and-forget.
	ResultCh chan<- JobResult
}

// JobResult wraps the outcome of an async job.
type JobResult struct {
	JobID    string
	Report   *ValidationReport
	Err      error
	Duration time.Duration
}

// StorageKey uniquely identifies a stored image.
type StorageKey struct {
	Bucket string
	Path   string
}
