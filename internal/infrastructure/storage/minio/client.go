// Package minio wraps the MinIO S3 client for the compliance report
// archive: generated fleet reports and calendar exports are uploaded
// here and handed to users through presigned URLs.
package minio

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/SeaCert-Compliance/internal/config"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
)

// connectTimeout bounds the startup connection probe.
const connectTimeout = 10 * time.Second

// defaultPresignExpiry applies when the configuration leaves it unset.
const defaultPresignExpiry = time.Hour

// ─────────────────────────────────────────────────────────────────────────────
// API abstraction
// ─────────────────────────────────────────────────────────────────────────────

// MinIOAPI is the slice of the minio-go client this package uses,
// abstracted so tests can substitute a fake.
type MinIOAPI interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Client
// ─────────────────────────────────────────────────────────────────────────────

// Client holds the MinIO connection and the platform's single archive
// bucket.
type Client struct {
	api    MinIOAPI
	cfg    config.MinIOConfig
	logger logging.Logger
}

// NewClient connects to MinIO, verifies reachability and ensures the
// archive bucket exists.
func NewClient(ctx context.Context, cfg config.MinIOConfig, logger logging.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New(errors.ErrCodeValidation, "minio endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrCodeValidation, "minio bucket is required")
	}

	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create minio client")
	}

	c := &Client{api: api, cfg: cfg, logger: logger}

	probeCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if _, err := api.ListBuckets(probeCtx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to minio")
	}
	if err := c.EnsureBucket(probeCtx); err != nil {
		return nil, err
	}

	logger.Info("minio client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// NewClientWithAPI wraps an existing API implementation. Used by tests.
func NewClientWithAPI(api MinIOAPI, cfg config.MinIOConfig, logger logging.Logger) *Client {
	return &Client{api: api, cfg: cfg, logger: logger}
}

// API exposes the underlying MinIO interface to the repository.
func (c *Client) API() MinIOAPI { return c.api }

// Bucket returns the archive bucket name.
func (c *Client) Bucket() string { return c.cfg.Bucket }

// EnsureBucket creates the archive bucket when it does not exist yet.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.cfg.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to check bucket existence")
	}
	if exists {
		return nil
	}

	if err := c.api.MakeBucket(ctx, c.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrapf(err, errors.ErrCodeStorageError, "failed to create bucket %s", c.cfg.Bucket)
	}
	c.logger.Info("minio bucket created", logging.String("bucket", c.cfg.Bucket))
	return nil
}

// HealthCheck verifies the server responds and the archive bucket exists.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.api.ListBuckets(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "minio health check failed")
	}
	exists, err := c.api.BucketExists(ctx, c.cfg.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "minio health check failed")
	}
	if !exists {
		return errors.Newf(errors.ErrCodeStorageError, "archive bucket %s is missing", c.cfg.Bucket)
	}
	return nil
}

// presignExpiry resolves the effective expiry for presigned URLs.
func (c *Client) presignExpiry(requested time.Duration) time.Duration {
	if requested > 0 {
		return requested
	}
	if c.cfg.PresignExpiry > 0 {
		return c.cfg.PresignExpiry
	}
	return defaultPresignExpiry
}
