package storage

import (
	"context"
	"fmt"

	"github.com/charliek/objstore/internal/constants"
	"github.com/charliek/objstore/internal/domain"
)

// Open constructs the backend selected by cfg. The result is the process-wide
// handle for one bucket and should be closed on shutdown.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		backend Backend
		err     error
	)

	switch cfg.Backend {
	case constants.BackendGCS:
		backend, err = NewGCSBackend(ctx, cfg.Bucket, GCSOptions{
			Credentials: cfg.GCSCredentials,
			KeyFile:     cfg.GCSKeyFile,
			ProjectID:   cfg.ProjectID,
		})
	case constants.BackendS3:
		backend, err = NewS3Backend(ctx, cfg.Bucket, cfg.S3)
	case constants.BackendMinio:
		backend, err = NewMinioBackend(cfg.Bucket, cfg.Minio)
	case constants.BackendLocal:
		backend, err = NewLocalBackend(cfg.Local.Root)
	case constants.BackendMemory:
		backend = NewMemoryBackend()
	default:
		return nil, domain.Errorf(domain.ErrInvalidConfig, "unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Retry.MaxRetries > 0 {
		backend = NewRetryingBackend(backend, cfg.Retry)
	}
	return backend, nil
}

// Describe returns a human-readable location for a backend
func Describe(b Backend) string {
	if d, ok := b.(Describer); ok {
		return d.Describe()
	}
	return fmt.Sprintf("%T", b)
}

// BucketChecker is implemented by backends that can verify bucket access directly
type BucketChecker interface {
	BucketExists(ctx context.Context) (bool, error)
}

// CheckBucket verifies the bucket is reachable. Backends without a bucket
// probe fall back to a listing.
func CheckBucket(ctx context.Context, b Backend) (bool, error) {
	if r, ok := b.(*RetryingBackend); ok {
		b = r.Unwrap()
	}
	if checker, ok := b.(BucketChecker); ok {
		return checker.BucketExists(ctx)
	}
	if _, err := b.List(ctx, ""); err != nil {
		return false, err
	}
	return true, nil
}
