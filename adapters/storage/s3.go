package storage

import (
	"context"
	"errors"
	"io"

	"github.com/Skryldev/photo-quality/core"
	apperrors "github.com/Skryldev/photo-quality/errors"
)

// S3Client defines the minimal S3 interface used by the adapter.
// AWSClient implements it over aws-sdk-go; tests inject doubles.
type S3Client interface {
	PutObject(ctx context.Context, bucket, key string, body io.Reader, meta map[string]string) error
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	HeadObject(ctx context.Context, bucket, key string) (bool, error)
}

// S3 is the StorageAdapter backed by AWS S3 (or S3-compatible stores).
// A StorageKey's Bucket becomes a key prefix inside the configured bucket.
type S3 struct {
	client S3Client
	bucket string
}

// NewS3 creates an S3 adapter.  client must not be nil.
func NewS3(client S3Client, bucket string) (*S3, error) {
	if client == nil {
		return nil, apperrors.New(apperrors.CategoryConfig, "s3.new", errors.New("s3 storage: client must not be nil"))
	}
	return &S3{client: client, bucket: bucket}, nil
}

func objectKey(key core.StorageKey) string {
	if key.Bucket == "" {
		return key.Path
	}
	return key.Bucket + "/" + key.Path
}

// classify marks a missing object as permanent and everything else as
// transient so callers can retry network failures.
func classify(op string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.New(apperrors.CategoryStorage, op, err)
	}
	return apperrors.Transient(op, err)
}

func (s *S3) Put(ctx context.Context, key core.StorageKey, r io.Reader, meta map[string]string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "s3.put", err)
	}
	if err := s.client.PutObject(ctx, s.bucket, objectKey(key), r, meta); err != nil {
		return classify("s3.put", err)
	}
	return nil
}

func (s *S3) Get(ctx context.Context, key core.StorageKey) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "s3.get", err)
	}
	rc, err := s.client.GetObject(ctx, s.bucket, objectKey(key))
	if err != nil {
		return nil, classify("s3.get", err)
	}
	return rc, nil
}

func (s *S3) Delete(ctx context.Context, key core.StorageKey) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "s3.delete", err)
	}
	if err := s.client.DeleteObject(ctx, s.bucket, objectKey(key)); err != nil {
		return classify("s3.delete", err)
	}
	return nil
}

func (s *S3) Exists(ctx context.Context, key core.StorageKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperrors.Wrap(apperrors.CategoryStorage, "s3.exists", err)
	}
	ok, err := s.client.HeadObject(ctx, s.bucket, objectKey(key))
	if err != nil {
		return false, classify("s3.exists", err)
	}
	return ok, nil
}
