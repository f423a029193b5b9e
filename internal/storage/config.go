package storage

import (
	"net/url"
	"strings"
	"time"

	"github.com/charliek/objstore/internal/constants"
	"github.com/charliek/objstore/internal/domain"
)

// Config selects a backend and binds it to one bucket
type Config struct {
	// Backend is one of gcs, s3, minio, local, memory
	Backend string `yaml:"backend"`

	// Bucket is the bucket name (unused by local and memory)
	Bucket string `yaml:"bucket,omitempty"`

	// ProjectID is the GCP project billed for requests (optional)
	ProjectID string `yaml:"project_id,omitempty"`

	// GCSCredentials is base64-encoded service account JSON
	GCSCredentials string `yaml:"gcs_credentials,omitempty"`

	// GCSKeyFile is a path to a service account JSON key file
	GCSKeyFile string `yaml:"gcs_key_file,omitempty"`

	S3    S3Config    `yaml:"s3,omitempty"`
	Minio MinioConfig `yaml:"minio,omitempty"`
	Local LocalConfig `yaml:"local,omitempty"`
	Retry RetryConfig `yaml:"retry,omitempty"`
}

// S3Config holds AWS S3 (or S3-compatible) settings
type S3Config struct {
	Region       string `yaml:"region,omitempty"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	AccessKey    string `yaml:"access_key,omitempty"`
	SecretKey    string `yaml:"secret_key,omitempty"`
	UsePathStyle bool   `yaml:"use_path_style,omitempty"`
	// Prefix scopes every key under a fixed folder inside the bucket
	Prefix string `yaml:"prefix,omitempty"`
}

// MinioConfig holds MinIO connection settings
type MinioConfig struct {
	Endpoint       string `yaml:"endpoint,omitempty"`
	AccessKey      string `yaml:"access_key,omitempty"`
	SecretKey      string `yaml:"secret_key,omitempty"`
	UseSSL         bool   `yaml:"use_ssl,omitempty"`
	Region         string `yaml:"region,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// LocalConfig holds settings for the filesystem backend
type LocalConfig struct {
	// Root is the directory that acts as the bucket
	Root string `yaml:"root,omitempty"`
}

// RetryConfig configures the optional retry decorator. MaxRetries 0 disables it.
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries,omitempty"`
	InitialBackoff time.Duration `yaml:"initial_backoff,omitempty"`
	MaxBackoff     time.Duration `yaml:"max_backoff,omitempty"`
}

// Validate checks the settings required by the selected backend
func (c Config) Validate() error {
	switch c.Backend {
	case constants.BackendGCS:
		if c.Bucket == "" {
			return domain.Errorf(domain.ErrInvalidConfig, "bucket is required")
		}
		if c.GCSCredentials != "" && c.GCSKeyFile != "" {
			return domain.Errorf(domain.ErrInvalidConfig, "cannot set both gcs_credentials and gcs_key_file")
		}
	case constants.BackendS3:
		if c.Bucket == "" {
			return domain.Errorf(domain.ErrInvalidConfig, "bucket is required")
		}
		if c.S3.Region == "" {
			return domain.Errorf(domain.ErrInvalidConfig, "s3.region is required")
		}
		if c.S3.Endpoint != "" {
			if err := validateEndpointURL(c.S3.Endpoint); err != nil {
				return err
			}
		}
		if (c.S3.AccessKey == "") != (c.S3.SecretKey == "") {
			return domain.Errorf(domain.ErrInvalidConfig, "s3.access_key and s3.secret_key must be set together")
		}
	case constants.BackendMinio:
		if c.Bucket == "" {
			return domain.Errorf(domain.ErrInvalidConfig, "bucket is required")
		}
		if c.Minio.Endpoint == "" {
			return domain.Errorf(domain.ErrInvalidConfig, "minio.endpoint is required")
		}
	case constants.BackendLocal:
		if c.Local.Root == "" {
			return domain.Errorf(domain.ErrInvalidConfig, "local.root is required")
		}
	case constants.BackendMemory:
	case "":
		return domain.Errorf(domain.ErrInvalidConfig, "backend is required")
	default:
		return domain.Errorf(domain.ErrInvalidConfig, "unknown backend %q", c.Backend)
	}

	if c.Retry.MaxRetries < 0 {
		return domain.Errorf(domain.ErrInvalidConfig, "retry.max_retries must not be negative")
	}
	return nil
}

// validateEndpointURL requires an absolute http(s) URL
func validateEndpointURL(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return domain.Errorf(domain.ErrInvalidConfig, "s3.endpoint must be a valid http(s) URL: %q", endpoint)
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return domain.Errorf(domain.ErrInvalidConfig, "s3.endpoint must use http or https: %q", endpoint)
	}
	return nil
}
