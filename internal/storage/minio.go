package storage

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/charliek/objstore/internal/constants"
	"github.com/charliek/objstore/internal/domain"
)

// Compile-time assertion that MinioBackend implements Backend
var _ Backend = (*MinioBackend)(nil)

// minioAPI is the subset of the MinIO client the backend calls
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type minioClientWrapper struct {
	*minio.Client
}

func (c *minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return c.Client.GetObject(ctx, bucketName, objectName, opts)
}

// MinioBackend implements Backend against a MinIO (or other S3-compatible) server
type MinioBackend struct {
	client minioAPI
	bucket string
	host   string
}

// NewMinioBackend creates a MinIO client bound to bucket
func NewMinioBackend(bucket string, cfg MinioConfig) (*MinioBackend, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, domain.Errorf(domain.ErrInvalidConfig, "minio bucket is required")
	}

	// Minio expects endpoint without scheme
	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")
	if endpoint == "" {
		return nil, domain.Errorf(domain.ErrInvalidConfig, "minio endpoint is required")
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = constants.DefaultMinioTimeoutSeconds
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:     miniocreds.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, domain.Errorf(domain.ErrBackend, "failed to create minio client: %v", err)
	}

	return &MinioBackend{
		client: &minioClientWrapper{Client: client},
		bucket: bucket,
		host:   endpoint,
	}, nil
}

func isMinioNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

// Put implements Backend.Put
func (m *MinioBackend) Put(ctx context.Context, path string, r io.Reader, size int64) (domain.ObjectMetadata, error) {
	info, err := m.client.PutObject(ctx, m.bucket, path, r, size, minio.PutObjectOptions{})
	if err != nil {
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "failed to put object: %w", err)
	}

	return domain.ObjectMetadata{Path: path, Size: info.Size, Updated: info.LastModified}, nil
}

// Get implements Backend.Get
func (m *MinioBackend) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	// GetObject is lazy and only fails on first read, so stat first to classify a missing key
	if _, err := m.client.StatObject(ctx, m.bucket, path, minio.StatObjectOptions{}); err != nil {
		if isMinioNotFound(err) {
			return nil, domain.Errorf(domain.ErrNotFound, "object not found: %s", path)
		}
		return nil, domain.Errorf(domain.ErrBackend, "failed to stat object: %w", err)
	}

	r, err := m.client.GetObject(ctx, m.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return nil, domain.Errorf(domain.ErrNotFound, "object not found: %s", path)
		}
		return nil, domain.Errorf(domain.ErrBackend, "failed to get object: %w", err)
	}
	return r, nil
}

// Delete implements Backend.Delete
func (m *MinioBackend) Delete(ctx context.Context, path string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		if isMinioNotFound(err) {
			return nil
		}
		return domain.Errorf(domain.ErrBackend, "failed to remove object: %w", err)
	}
	return nil
}

// Exists implements Backend.Exists
func (m *MinioBackend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return false, nil
		}
		return false, domain.Errorf(domain.ErrBackend, "failed to stat object: %w", err)
	}
	return true, nil
}

// List implements Backend.List
func (m *MinioBackend) List(ctx context.Context, prefix string) ([]domain.ObjectMetadata, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := make([]domain.ObjectMetadata, 0)
	for info := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, domain.Errorf(domain.ErrBackend, "failed to list objects: %w", info.Err)
		}
		objects = append(objects, domain.ObjectMetadata{
			Path:    info.Key,
			Size:    info.Size,
			Updated: info.LastModified,
		})
	}
	return objects, nil
}

// Close implements Backend.Close
func (m *MinioBackend) Close() error {
	return nil
}

// Describe implements Describer
func (m *MinioBackend) Describe() string {
	return "minio://" + m.host + "/" + m.bucket
}

// BucketExists checks if the configured bucket exists and is accessible
func (m *MinioBackend) BucketExists(ctx context.Context) (bool, error) {
	ok, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return false, domain.Errorf(domain.ErrBackend, "failed to check bucket: %w", err)
	}
	return ok, nil
}
