package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charliek/objstore/internal/constants"
	"github.com/charliek/objstore/internal/domain"
	"github.com/charliek/objstore/internal/logger"
	"github.com/charliek/objstore/internal/storage"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// Storage selects the backend and bucket; its keys sit at the top level of the file
	Storage storage.Config `yaml:",inline"`

	// Log controls diagnostic logging
	Log logger.Config `yaml:"log,omitempty"`

	// configPath is the path this config was loaded from (not serialized)
	configPath string `yaml:"-"`
}

// Load reads configuration from the specified path
func Load(path string) (*Config, error) {
	if path == "" {
		path = getConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.Errorf(domain.ErrNotConfigured, "config file not found at %s", path)
		}
		return nil, domain.Errorf(domain.ErrInvalidConfig, "failed to read config: %v", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, domain.Errorf(domain.ErrInvalidConfig, "failed to parse config: %v", err)
	}

	cfg.configPath = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the specified path using atomic write
func (c *Config) Save(path string) error {
	if path == "" {
		path = getConfigPath()
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return domain.Errorf(domain.ErrInvalidConfig, "failed to create config directory: %v", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return domain.Errorf(domain.ErrInvalidConfig, "failed to marshal config: %v", err)
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return domain.Errorf(domain.ErrInvalidConfig, "failed to write config: %v", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) // Clean up on failure
		return domain.Errorf(domain.ErrInvalidConfig, "failed to save config: %v", err)
	}

	c.configPath = path
	return nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}

// Path returns the path this config was loaded from
func (c *Config) Path() string {
	return c.configPath
}

// getConfigPath returns the config path from env var or default
func getConfigPath() string {
	if path := os.Getenv(constants.ConfigEnvVar); path != "" {
		return path
	}
	return constants.DefaultConfigPath()
}

// Exists checks if a config file exists at the default or specified path
func Exists(path string) bool {
	if path == "" {
		path = getConfigPath()
	}
	_, err := os.Stat(path)
	return err == nil
}

// ConfigPath returns the path that would be used for config
func ConfigPath(override string) string {
	if override != "" {
		return override
	}
	return getConfigPath()
}

func secret(v string) string {
	if v == "" {
		return ""
	}
	return "[set]"
}

// String returns a string representation (for debugging, hides sensitive data)
func (c *Config) String() string {
	s := c.Storage
	return fmt.Sprintf("Config{Backend: %q, Bucket: %q, ProjectID: %q, GCSCredentials: %s, GCSKeyFile: %q, "+
		"S3: {Region: %q, Endpoint: %q, AccessKey: %s, SecretKey: %s, Prefix: %q}, "+
		"Minio: {Endpoint: %q, AccessKey: %s, SecretKey: %s}, Local: {Root: %q}, "+
		"Retry: {MaxRetries: %d}, Log: {Level: %q, Format: %q}}",
		s.Backend, s.Bucket, s.ProjectID, secret(s.GCSCredentials), s.GCSKeyFile,
		s.S3.Region, s.S3.Endpoint, secret(s.S3.AccessKey), secret(s.S3.SecretKey), s.S3.Prefix,
		s.Minio.Endpoint, secret(s.Minio.AccessKey), secret(s.Minio.SecretKey), s.Local.Root,
		s.Retry.MaxRetries, c.Log.Level, c.Log.Format)
}
