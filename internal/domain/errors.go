package domain

import (
	"errors"
	"fmt"

	"github.com/charliek/objstore/internal/constants"
)

// Sentinel errors
var (
	// ErrNotFound means the addressed local or remote resource does not exist
	ErrNotFound = errors.New("not found")
	// ErrBackend covers every storage backend failure that is not a not-found
	ErrBackend = errors.New("backend error")
	// ErrInvalidArgs is returned for empty or malformed paths before any backend call
	ErrInvalidArgs = errors.New("invalid arguments")

	ErrNotConfigured = errors.New("objstore not configured")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrCheckFailed   = errors.New("check failed")
	ErrUserCancelled = errors.New("operation cancelled by user")

	ErrFileSizeTooLarge = errors.New("file size exceeds limit")
)

// Error kind names reported in logs and JSON output
const (
	KindNotFound    = "not_found"
	KindBackend     = "backend"
	KindInvalidArgs = "invalid_argument"
	KindCheckFailed = "check_failed"
	KindUnknown     = "unknown"
)

// KindOf classifies an error into one of the facade error kinds
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgs), errors.Is(err, ErrFileSizeTooLarge):
		return KindInvalidArgs
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrBackend):
		return KindBackend
	case errors.Is(err, ErrCheckFailed):
		return KindCheckFailed
	default:
		return KindUnknown
	}
}

// ExitCodeError wraps an error with an exit code
type ExitCodeError struct {
	Err      error
	ExitCode int
}

func (e *ExitCodeError) Error() string {
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// NewExitCodeError creates a new ExitCodeError
func NewExitCodeError(err error, code int) *ExitCodeError {
	return &ExitCodeError{Err: err, ExitCode: code}
}

// WrapWithExitCode wraps an error with an exit code based on the error type
func WrapWithExitCode(err error) *ExitCodeError {
	if err == nil {
		return nil
	}

	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr
	}

	return &ExitCodeError{Err: err, ExitCode: errorToExitCode(err)}
}

// errorToExitCode maps errors to exit codes
func errorToExitCode(err error) int {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return constants.ExitNotConfigured
	case errors.Is(err, ErrInvalidConfig):
		return constants.ExitInvalidConfig
	case errors.Is(err, ErrInvalidArgs), errors.Is(err, ErrFileSizeTooLarge):
		return constants.ExitInvalidArgs
	case errors.Is(err, ErrNotFound):
		return constants.ExitNotFound
	case errors.Is(err, ErrBackend):
		return constants.ExitBackendError
	case errors.Is(err, ErrCheckFailed):
		return constants.ExitCheckFailed
	case errors.Is(err, ErrUserCancelled):
		return constants.ExitUserCancelled
	default:
		return constants.ExitUnknownError
	}
}

// GetExitCode returns the exit code for an error
func GetExitCode(err error) int {
	if err == nil {
		return constants.ExitSuccess
	}

	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode
	}

	return errorToExitCode(err)
}

// Errorf creates a formatted error wrapping a sentinel error
func Errorf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...)
}
