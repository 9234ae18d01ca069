package compliance

import (
	"context"
	"io"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Infrastructure ports
// ─────────────────────────────────────────────────────────────────────────────

// EventPublisher emits platform events. Satisfied by the Kafka producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, eventType, source string, payload interface{}) error
}

// Cache is the slice of the platform cache this package uses: summary
// caching with singleflight semantics and SETNX-based alert dedup.
type Cache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// ReportArchive stores generated report artifacts and hands out
// time-limited download links. Satisfied by the MinIO repository.
type ReportArchive interface {
	Store(ctx context.Context, key string, data []byte, contentType string) error
	PresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// External collaborator ports
// ─────────────────────────────────────────────────────────────────────────────

// DocumentExtractor pulls structured certificate fields out of scanned
// documents. Extraction runs in an external service; this repo only
// consumes its results, so no implementation lives here.
type DocumentExtractor interface {
	// ExtractCertificateFields reads a scanned certificate and returns the
	// recognized field values keyed by field name.
	ExtractCertificateFields(ctx context.Context, document io.Reader) (map[string]string, error)
}

// DriveProvisioner manages per-ship folders on the external document
// drive. Provisioning runs in an external service; this repo only holds
// the contract.
type DriveProvisioner interface {
	// EnsureShipFolder creates the ship's document folder when missing and
	// returns its external identifier.
	EnsureShipFolder(ctx context.Context, imoNumber string) (string, error)
}
