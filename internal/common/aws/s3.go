// internal/common/aws/s3.go
package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"legaldash/internal/common/config"
	apperrors "legaldash/internal/common/errors"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

var (
	// ErrObjectNotFound covers every error answered by the store itself
	// (missing key or bucket, denied access).
	ErrObjectNotFound = errors.New("OBJECT_NOT_FOUND")
	// ErrBucketNotConfigured is returned by object calls when no bucket is set.
	ErrBucketNotConfigured = errors.New("OBJECT_STORE_BUCKET_NOT_CONFIGURED")
)

// S3Client talks to MinIO or any S3-compatible store, scoped to one bucket.
type S3Client struct {
	client *s3.Client
	bucket string
}

func NewS3Client(ctx context.Context, cfg config.ObjectStoreConfig, optFns ...func(*s3.Options)) (*S3Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = awssdk.String(endpointURL(cfg.Endpoint, cfg.UseSSL))
		}
		o.UsePathStyle = cfg.UsePathStyle
		for _, fn := range optFns {
			fn(o)
		}
	})

	return &S3Client{client: client, bucket: cfg.Bucket}, nil
}

// endpointURL accepts MinIO style "host:port" endpoints as well as full URLs.
func endpointURL(endpoint string, useSSL bool) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func (c *S3Client) Bucket() string {
	return c.bucket
}

// EnsureBucket creates the bucket when it does not exist yet.
func (c *S3Client) EnsureBucket(ctx context.Context) error {
	if c.bucket == "" {
		return ErrBucketNotConfigured
	}

	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: awssdk.String(c.bucket)})
	if err == nil {
		return nil
	}
	if !isAPIError(err) {
		return fmt.Errorf("head bucket %s: %w", c.bucket, err)
	}

	_, err = c.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: awssdk.String(c.bucket)})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}
	return nil
}

// GetObject reads the whole object at key.
func (c *S3Client) GetObject(ctx context.Context, key string) ([]byte, error) {
	if c.bucket == "" {
		return nil, ErrBucketNotConfigured
	}

	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: awssdk.String(c.bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		return nil, classify("get object", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// PutObject stores data at key.
func (c *S3Client) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	if c.bucket == "" {
		return ErrBucketNotConfigured
	}

	input := &s3.PutObjectInput{
		Bucket:        awssdk.String(c.bucket),
		Key:           awssdk.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: awssdk.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = awssdk.String(contentType)
	}

	if _, err := c.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func isAPIError(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr)
}

func classify(op, key string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s %s: %s: %s", ErrObjectNotFound, op, key, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}

// AsStandardError maps an object store failure on key to its API error.
func AsStandardError(key string, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrBucketNotConfigured):
		return apperrors.NewObjectStoreNotConfiguredError()
	case errors.Is(err, ErrObjectNotFound):
		return apperrors.NewDocumentNotFoundError(key, err)
	default:
		return apperrors.NewObjectStoreRequestFailedError(err)
	}
}
