package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/charliek/objstore/internal/domain"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Compile-time assertion that GCSBackend implements Backend
var _ Backend = (*GCSBackend)(nil)

// GCSBackend implements Backend using Google Cloud Storage
type GCSBackend struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
}

// GCSOptions carries the credential inputs for NewGCSBackend
type GCSOptions struct {
	// Credentials is base64-encoded service account JSON
	Credentials string
	// KeyFile is a path to a service account JSON key file
	KeyFile string
	// ProjectID is used as the quota project when set
	ProjectID string
	// ClientOptions are appended after the credential options (endpoints, test clients)
	ClientOptions []option.ClientOption
}

// ValidateGCSCredentials validates that the decoded credentials are valid JSON
// with the expected structure for a GCS credential
func ValidateGCSCredentials(decoded []byte) error {
	var creds map[string]interface{}
	if err := json.Unmarshal(decoded, &creds); err != nil {
		return domain.Errorf(domain.ErrInvalidConfig, "credentials are not valid JSON: %v", err)
	}

	credType, ok := creds["type"].(string)
	if !ok {
		return domain.Errorf(domain.ErrInvalidConfig, "credentials missing 'type' field")
	}

	validTypes := map[string]bool{
		"service_account":              true,
		"authorized_user":              true,
		"external_account":             true,
		"impersonated_service_account": true,
	}
	if !validTypes[credType] {
		return domain.Errorf(domain.ErrInvalidConfig, "unsupported credential type: %s", credType)
	}

	return nil
}

// gcsCredentialsJSON resolves the configured credential source to raw JSON.
// It returns nil when neither is set, leaving Application Default Credentials.
func gcsCredentialsJSON(opts GCSOptions) ([]byte, error) {
	switch {
	case opts.Credentials != "":
		decoded, err := base64.StdEncoding.DecodeString(opts.Credentials)
		if err != nil {
			return nil, domain.Errorf(domain.ErrInvalidConfig, "failed to decode credentials: %v", err)
		}
		return decoded, nil
	case opts.KeyFile != "":
		data, err := os.ReadFile(opts.KeyFile)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, domain.Errorf(domain.ErrInvalidConfig, "key file not found: %s", opts.KeyFile)
			}
			return nil, domain.Errorf(domain.ErrInvalidConfig, "failed to read key file: %v", err)
		}
		return data, nil
	default:
		return nil, nil
	}
}

// NewGCSBackend creates a GCS client bound to bucket
func NewGCSBackend(ctx context.Context, bucket string, opts GCSOptions) (*GCSBackend, error) {
	var clientOpts []option.ClientOption

	creds, err := gcsCredentialsJSON(opts)
	if err != nil {
		return nil, err
	}
	if creds != nil {
		// Validate JSON structure before passing to GCS client
		if err := ValidateGCSCredentials(creds); err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, option.WithCredentialsJSON(creds))
	}
	if opts.ProjectID != "" {
		clientOpts = append(clientOpts, option.WithQuotaProject(opts.ProjectID))
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, domain.Errorf(domain.ErrBackend, "failed to create GCS client: %v", err)
	}

	return &GCSBackend{
		client: client,
		bucket: client.Bucket(bucket),
		name:   bucket,
	}, nil
}

// Put implements Backend.Put
func (s *GCSBackend) Put(ctx context.Context, path string, r io.Reader, size int64) (domain.ObjectMetadata, error) {
	w := s.bucket.Object(path).NewWriter(ctx)

	if _, err := io.Copy(w, r); err != nil {
		// Close aborts the upload; the copy error is the one worth reporting
		_ = w.Close()
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "failed to write to GCS: %v", err)
	}

	if err := w.Close(); err != nil {
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "failed to close GCS writer: %v", err)
	}

	meta := domain.ObjectMetadata{Path: path, Size: domain.UnknownSize}
	if attrs := w.Attrs(); attrs != nil {
		meta.Size = attrs.Size
		meta.Updated = attrs.Updated
	}
	return meta, nil
}

// Get implements Backend.Get
func (s *GCSBackend) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	r, err := s.bucket.Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, domain.Errorf(domain.ErrNotFound, "object not found: %s", path)
		}
		return nil, domain.Errorf(domain.ErrBackend, "failed to read from GCS: %w", err)
	}
	return r, nil
}

// List implements Backend.List
func (s *GCSBackend) List(ctx context.Context, prefix string) ([]domain.ObjectMetadata, error) {
	var objects []domain.ObjectMetadata

	query := &storage.Query{Prefix: prefix}
	if err := query.SetAttrSelection([]string{"Name", "Size", "Updated"}); err != nil {
		return nil, domain.Errorf(domain.ErrBackend, "failed to build list query: %v", err)
	}

	// The iterator fetches further pages as needed, so this drains the whole listing
	it := s.bucket.Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, domain.Errorf(domain.ErrBackend, "failed to list objects: %w", err)
		}
		objects = append(objects, domain.ObjectMetadata{
			Path:    attrs.Name,
			Size:    attrs.Size,
			Updated: attrs.Updated,
		})
	}

	return objects, nil
}

// Delete implements Backend.Delete
func (s *GCSBackend) Delete(ctx context.Context, path string) error {
	if err := s.bucket.Object(path).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil // Already deleted
		}
		return domain.Errorf(domain.ErrBackend, "failed to delete object: %w", err)
	}
	return nil
}

// Exists implements Backend.Exists
func (s *GCSBackend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.bucket.Object(path).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, domain.Errorf(domain.ErrBackend, "failed to check object existence: %w", err)
	}
	return true, nil
}

// Close closes the GCS client
func (s *GCSBackend) Close() error {
	return s.client.Close()
}

// Describe implements Describer
func (s *GCSBackend) Describe() string {
	return "gs://" + s.name
}

// BucketExists checks if the configured bucket exists and is accessible
func (s *GCSBackend) BucketExists(ctx context.Context) (bool, error) {
	_, err := s.bucket.Attrs(ctx)
	if errors.Is(err, storage.ErrBucketNotExist) {
		return false, nil
	}
	if err != nil {
		return false, domain.Errorf(domain.ErrBackend, "failed to check bucket: %w", err)
	}
	return true, nil
}
