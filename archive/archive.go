// Package archive files validated photos into accepted/ and rejected/
// buckets of a storage adapter, next to a JSON copy of their report.
package archive

import (
	"bytes"
	"context"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/Skryldev/photo-quality/core"
	apperrors "github.com/Skryldev/photo-quality/errors"
	"github.com/Skryldev/photo-quality/utils"
)

const (
	BucketAccepted = "accepted"
	BucketRejected = "rejected"

	reportSuffix = ".report.json"
)

// Record locates an archived photo and its report.
type Record struct {
	Image  core.StorageKey
	Report core.StorageKey
}

// Archive writes photos through a core.StorageAdapter, retrying transient
// storage failures.
type Archive struct {
	store      core.StorageAdapter
	maxRetries int
	retryDelay time.Duration
}

// New returns an Archive over store.
func New(store core.StorageAdapter, maxRetries int, retryDelay time.Duration) *Archive {
	return &Archive{store: store, maxRetries: max(maxRetries, 0), retryDelay: retryDelay}
}

// BucketFor returns the bucket a report's photo is filed under.
func BucketFor(r *core.ValidationReport) string {
	if r.Passed() {
		return BucketAccepted
	}
	return BucketRejected
}

// Store writes raw and its report.  The image key is the report's image_id
// plus the extension of the detected format.
func (a *Archive) Store(ctx context.Context, raw []byte, report *core.ValidationReport) (Record, error) {
	if report == nil || report.ImageID == "" {
		return Record{}, apperrors.New(apperrors.CategoryInput, "archive.store", apperrors.ErrEmptyInput)
	}
	bucket := BucketFor(report)
	rec := Record{
		Image:  core.StorageKey{Bucket: bucket, Path: report.ImageID + utils.ExtensionFor(utils.DetectFormat(raw))},
		Report: core.StorageKey{Bucket: bucket, Path: report.ImageID + reportSuffix},
	}

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return Record{}, apperrors.Wrap(apperrors.CategoryStorage, "archive.encode", err)
	}
	meta := map[string]string{
		"image_id":       report.ImageID,
		"overall_status": string(report.OverallStatus),
		"overall_score":  strconv.FormatFloat(report.OverallScore, 'f', 1, 64),
	}

	if err := a.put(ctx, rec.Image, raw, meta); err != nil {
		return Record{}, err
	}
	if err := a.put(ctx, rec.Report, body, nil); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Locate reports which bucket holds the report for imageID, if any.
func (a *Archive) Locate(ctx context.Context, imageID string) (string, bool, error) {
	for _, bucket := range []string{BucketAccepted, BucketRejected} {
		ok, err := a.store.Exists(ctx, core.StorageKey{Bucket: bucket, Path: imageID + reportSuffix})
		if err != nil {
			return "", false, err
		}
		if ok {
			return bucket, true, nil
		}
	}
	return "", false, nil
}

// Remove deletes both objects of rec.
func (a *Archive) Remove(ctx context.Context, rec Record) error {
	if err := a.store.Delete(ctx, rec.Image); err != nil {
		return err
	}
	return a.store.Delete(ctx, rec.Report)
}

func (a *Archive) put(ctx context.Context, key core.StorageKey, data []byte, meta map[string]string) error {
	var err error
	for i := 0; i <= a.maxRetries; i++ {
		err = a.store.Put(ctx, key, bytes.NewReader(data), meta)
		if err == nil || !apperrors.IsRetryable(err) {
			return err
		}
		if i < a.maxRetries {
			select {
			case <-ctx.Done():
				return apperrors.Wrap(apperrors.CategoryStorage, "archive.put", ctx.Err())
			case <-time.After(a.retryDelay):
			}
		}
	}
	return err
}
