package storage

import (
	"context"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/minio/minio-go/v7"
	"google.golang.org/api/googleapi"

	"github.com/charliek/objstore/internal/domain"
)

const (
	// DefaultMaxRetries is the number of retry attempts used when retries are enabled without a count
	DefaultMaxRetries = 3
	// DefaultInitialBackoff is the initial backoff duration
	DefaultInitialBackoff = 500 * time.Millisecond
	// DefaultMaxBackoff is the maximum backoff duration
	DefaultMaxBackoff = 30 * time.Second
)

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     DefaultMaxRetries,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
	}
}

// withDefaults fills unset backoff durations
func (c RetryConfig) withDefaults() RetryConfig {
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = DefaultInitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
	return c
}

// isRetryableStatus reports whether an HTTP status is transient
func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// isRetryableError determines if an error is transient and worth retrying
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidArgs) {
		return false
	}

	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return isRetryableStatus(apiErr.Code)
	}

	// smithy-go's HTTP response errors (S3) expose the status this way
	var statusErr interface{ HTTPStatusCode() int }
	if errors.As(err, &statusErr) {
		return isRetryableStatus(statusErr.HTTPStatusCode())
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		return isRetryableStatus(minioErr.StatusCode)
	}

	return false
}

// calculateBackoff calculates the backoff duration for a given attempt
func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	backoff := time.Duration(float64(cfg.InitialBackoff) * math.Pow(2, float64(attempt)))
	if backoff > cfg.MaxBackoff {
		backoff = cfg.MaxBackoff
	}
	return backoff
}

// WithRetry wraps a function with retry logic
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			return zero, err
		}

		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(calculateBackoff(attempt, cfg)):
		}
	}

	return zero, lastErr
}

// WithRetryNoResult wraps a function that returns only an error with retry logic
func WithRetryNoResult(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := WithRetry(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryingBackend wraps a Backend with retry logic for its idempotent calls
type RetryingBackend struct {
	inner Backend
	cfg   RetryConfig
}

// Compile-time assertion that RetryingBackend implements Backend
var _ Backend = (*RetryingBackend)(nil)

// NewRetryingBackend creates a new retrying backend wrapper
func NewRetryingBackend(inner Backend, cfg RetryConfig) *RetryingBackend {
	return &RetryingBackend{inner: inner, cfg: cfg.withDefaults()}
}

// Put implements Backend.Put without retry: the reader may already be consumed
func (s *RetryingBackend) Put(ctx context.Context, path string, r io.Reader, size int64) (domain.ObjectMetadata, error) {
	return s.inner.Put(ctx, path, r, size)
}

// Get implements Backend.Get with retry
func (s *RetryingBackend) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	return WithRetry(ctx, s.cfg, func() (io.ReadCloser, error) {
		return s.inner.Get(ctx, path)
	})
}

// List implements Backend.List with retry
func (s *RetryingBackend) List(ctx context.Context, prefix string) ([]domain.ObjectMetadata, error) {
	return WithRetry(ctx, s.cfg, func() ([]domain.ObjectMetadata, error) {
		return s.inner.List(ctx, prefix)
	})
}

// Delete implements Backend.Delete with retry
func (s *RetryingBackend) Delete(ctx context.Context, path string) error {
	return WithRetryNoResult(ctx, s.cfg, func() error {
		return s.inner.Delete(ctx, path)
	})
}

// Exists implements Backend.Exists with retry
func (s *RetryingBackend) Exists(ctx context.Context, path string) (bool, error) {
	return WithRetry(ctx, s.cfg, func() (bool, error) {
		return s.inner.Exists(ctx, path)
	})
}

// Close closes the underlying backend
func (s *RetryingBackend) Close() error {
	return s.inner.Close()
}

// Describe implements Describer
func (s *RetryingBackend) Describe() string {
	return Describe(s.inner)
}

// Unwrap returns the wrapped backend
func (s *RetryingBackend) Unwrap() Backend {
	return s.inner
}
