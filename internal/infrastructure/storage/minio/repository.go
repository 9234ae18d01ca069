package minio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
)

// ErrObjectNotFound is returned when the requested object key does not
// exist in the archive bucket.
var ErrObjectNotFound = errors.New(errors.ErrCodeStorageObjectMissing, "object not found")

// ─────────────────────────────────────────────────────────────────────────────
// Request / result types
// ─────────────────────────────────────────────────────────────────────────────

// UploadRequest describes an object to store in the archive.
type UploadRequest struct {
	Key         string
	Data        []byte
	ContentType string            // detected from Data when empty
	Metadata    map[string]string // user metadata stored with the object
}

// ObjectMeta describes a stored object.
type ObjectMeta struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// ─────────────────────────────────────────────────────────────────────────────
// Repository
// ─────────────────────────────────────────────────────────────────────────────

// Repository provides storage operations for the report archive. All
// operations are scoped to the client's configured bucket.
type Repository struct {
	client *Client
	logger logging.Logger
}

// NewRepository builds a Repository over an established client.
func NewRepository(client *Client, logger logging.Logger) *Repository {
	return &Repository{client: client, logger: logger}
}

// Upload stores an object and returns its metadata. Content type is
// sniffed from the payload when the request leaves it empty.
func (r *Repository) Upload(ctx context.Context, req UploadRequest) (*ObjectMeta, error) {
	if strings.TrimSpace(req.Key) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "object key is required")
	}
	if len(req.Data) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "object data is empty")
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(req.Data)
	}

	info, err := r.client.API().PutObject(ctx, r.client.Bucket(), req.Key,
		bytes.NewReader(req.Data), int64(len(req.Data)),
		minio.PutObjectOptions{
			ContentType:  contentType,
			UserMetadata: req.Metadata,
		})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeStorageError, "failed to upload object %s", req.Key)
	}

	r.logger.Debug("object uploaded",
		logging.String("key", req.Key),
		logging.Int64("size", info.Size),
		logging.String("content_type", contentType))

	return &ObjectMeta{
		Key:          req.Key,
		Size:         info.Size,
		ContentType:  contentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

// Store uploads an object without returning its metadata. It satisfies
// the application layer's report archive port.
func (r *Repository) Store(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := r.Upload(ctx, UploadRequest{Key: key, Data: data, ContentType: contentType})
	return err
}

// Download reads the full object payload into memory. Archived reports
// are small enough that streaming is not needed.
func (r *Repository) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := r.client.API().GetObject(ctx, r.client.Bucket(), key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeStorageError, "failed to get object %s", key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotFound
		}
		return nil, errors.Wrapf(err, errors.ErrCodeStorageError, "failed to read object %s", key)
	}
	return data, nil
}

// Exists reports whether an object is present in the archive.
func (r *Repository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := r.client.API().StatObject(ctx, r.client.Bucket(), key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrCodeStorageError, "failed to stat object %s", key)
	}
	return true, nil
}

// Stat returns object metadata without reading the payload.
func (r *Repository) Stat(ctx context.Context, key string) (*ObjectMeta, error) {
	info, err := r.client.API().StatObject(ctx, r.client.Bucket(), key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotFound
		}
		return nil, errors.Wrapf(err, errors.ErrCodeStorageError, "failed to stat object %s", key)
	}
	return &ObjectMeta{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (r *Repository) Delete(ctx context.Context, key string) error {
	err := r.client.API().RemoveObject(ctx, r.client.Bucket(), key, minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return errors.Wrapf(err, errors.ErrCodeStorageError, "failed to delete object %s", key)
	}
	return nil
}

// List returns metadata for all objects under the given key prefix.
func (r *Repository) List(ctx context.Context, prefix string) ([]ObjectMeta, error) {
	ch := r.client.API().ListObjects(ctx, r.client.Bucket(), minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var out []ObjectMeta
	for info := range ch {
		if info.Err != nil {
			return nil, errors.Wrapf(info.Err, errors.ErrCodeStorageError, "failed to list objects under %s", prefix)
		}
		out = append(out, ObjectMeta{
			Key:          info.Key,
			Size:         info.Size,
			ContentType:  info.ContentType,
			ETag:         info.ETag,
			LastModified: info.LastModified,
		})
	}
	return out, nil
}

// PresignedDownloadURL returns a time-limited URL for downloading an
// archived object. The object must exist. A zero expiry falls back to
// the configured default.
func (r *Repository) PresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, err := r.Stat(ctx, key); err != nil {
		return "", err
	}

	u, err := r.client.API().PresignedGetObject(ctx, r.client.Bucket(), key,
		r.client.presignExpiry(expiry), nil)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrCodeStorageError, "failed to presign url for %s", key)
	}
	return u.String(), nil
}

// isNoSuchKey detects MinIO's missing-object error response.
func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
