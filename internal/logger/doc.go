// Package logger builds the zap logger used for diagnostics.
//
// Diagnostics go to stderr so they never mix with command output on stdout.
// The facade logs every object operation at debug level with the op, the
// object path and, on failure, the error kind.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: console (default) or json
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "debug"})
//	defer log.Sync()
//	log.Debug("object operation", zap.String("op", "upload"))
package logger
