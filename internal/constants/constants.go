package constants

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// ConfigFileName is the default config file name
	ConfigFileName = "config.yaml"

	// ObjstoreDir is the directory name for objstore data
	ObjstoreDir = ".objstore"

	// ConfigEnvVar is the environment variable to override config path
	ConfigEnvVar = "OBJSTORE_CONFIG"

	// BytesPerKB is the number of bytes in a kilobyte
	BytesPerKB = 1024

	// DownloadTempPattern is the temp file pattern used while a download is in flight
	DownloadTempPattern = ".objstore-download-*"
)

// Backend kinds accepted in the config file
const (
	BackendGCS    = "gcs"
	BackendS3     = "s3"
	BackendMinio  = "minio"
	BackendLocal  = "local"
	BackendMemory = "memory"
)

// Demo defaults
const (
	DemoSamplePath   = "./.data/hello.txt"
	DemoDownloadPath = "./.data/_hello1.txt"
	DemoFirstObject  = "hello1.txt"
	DemoSecondObject = "foo/hello2.txt"

	// MaxDemoSampleSize bounds how much of the sample and downloaded copy are compared (16 MB)
	MaxDemoSampleSize = 16 * 1024 * 1024
)

const (
	// DefaultOperationTimeout is the default timeout for CLI operations
	DefaultOperationTimeout = 5 * time.Minute

	// DefaultS3DeleteTimeout bounds a single S3 DeleteObject call
	DefaultS3DeleteTimeout = 30 * time.Second

	// DefaultS3ListPageTimeout bounds fetching a single ListObjectsV2 page
	DefaultS3ListPageTimeout = 30 * time.Second

	// DefaultMinioTimeoutSeconds is the MinIO connection timeout when unset
	DefaultMinioTimeoutSeconds = 30
)

// Exit codes
const (
	ExitSuccess       = 0
	ExitNotConfigured = 1
	ExitInvalidConfig = 2
	ExitInvalidArgs   = 3
	ExitNotFound      = 4
	ExitBackendError  = 5
	ExitCheckFailed   = 6
	ExitUserCancelled = 7
	ExitUnknownError  = 99
)

// DefaultConfigDir returns the default configuration directory path
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ObjstoreDir)
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), ConfigFileName)
}
