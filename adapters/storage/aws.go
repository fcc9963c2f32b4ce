package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/Skryldev/photo-quality/config"
	apperrors "github.com/Skryldev/photo-quality/errors"
)

// AWSClient implements S3Client with aws-sdk-go.
type AWSClient struct {
	api *s3.S3
}

// NewAWSClient builds a session from cfg.  Static credentials are used when
// both keys are set; otherwise the SDK's default chain applies.
func NewAWSClient(cfg config.S3Config) (*AWSClient, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.UsePathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "s3.session",
			fmt.Errorf("failed to create AWS session: %w", err))
	}
	return &AWSClient{api: s3.New(sess)}, nil
}

func (c *AWSClient) PutObject(ctx context.Context, bucket, key string, body io.Reader, meta map[string]string) error {
	// The SDK signs the payload, so it needs a seekable body.
	rs, ok := body.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		rs = bytes.NewReader(data)
	}
	_, err := c.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		Body:     rs,
		Metadata: aws.StringMap(meta),
	})
	return notFound(err)
}

func (c *AWSClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := c.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, notFound(err)
	}
	return out.Body, nil
}

func (c *AWSClient) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := c.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return notFound(err)
}

func (c *AWSClient) HeadObject(ctx context.Context, bucket, key string) (bool, error) {
	_, err := c.api.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if err = notFound(err); errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// notFound maps S3's missing-key responses onto errors.ErrNotFound.
func notFound(err error) error {
	if err == nil {
		return nil
	}
	var rf awserr.RequestFailure
	if errors.As(err, &rf) && rf.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, rf.Message())
	}
	var ae awserr.Error
	if errors.As(err, &ae) {
		switch ae.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return fmt.Errorf("%w: %s", apperrors.ErrNotFound, ae.Message())
		}
	}
	return err
}

var _ S3Client = (*AWSClient)(nil)
