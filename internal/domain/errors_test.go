package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/charliek/objstore/internal/constants"
	"github.com/stretchr/testify/require"
)

func TestErrorf_WrapsSentinel(t *testing.T) {
	err := Errorf(ErrNotFound, "object not found: %s", "hello1.txt")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, "not found: object not found: hello1.txt", err.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "not found", err: Errorf(ErrNotFound, "x"), want: KindNotFound},
		{name: "backend", err: Errorf(ErrBackend, "x"), want: KindBackend},
		{name: "invalid args", err: Errorf(ErrInvalidArgs, "x"), want: KindInvalidArgs},
		{name: "wrapped twice", err: fmt.Errorf("upload: %w", Errorf(ErrBackend, "x")), want: KindBackend},
		{name: "check failed", err: Errorf(ErrCheckFailed, "x"), want: KindCheckFailed},
		{name: "file too large", err: Errorf(ErrFileSizeTooLarge, "x"), want: KindInvalidArgs},
		{name: "other", err: errors.New("boom"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: constants.ExitSuccess},
		{name: "not configured", err: Errorf(ErrNotConfigured, "x"), want: constants.ExitNotConfigured},
		{name: "invalid config", err: Errorf(ErrInvalidConfig, "x"), want: constants.ExitInvalidConfig},
		{name: "invalid args", err: Errorf(ErrInvalidArgs, "x"), want: constants.ExitInvalidArgs},
		{name: "not found", err: Errorf(ErrNotFound, "x"), want: constants.ExitNotFound},
		{name: "backend", err: Errorf(ErrBackend, "x"), want: constants.ExitBackendError},
		{name: "check failed", err: Errorf(ErrCheckFailed, "x"), want: constants.ExitCheckFailed},
		{name: "cancelled", err: ErrUserCancelled, want: constants.ExitUserCancelled},
		{name: "unknown", err: errors.New("boom"), want: constants.ExitUnknownError},
		{name: "explicit", err: NewExitCodeError(errors.New("boom"), 42), want: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestWrapWithExitCode(t *testing.T) {
	require.Nil(t, WrapWithExitCode(nil))

	wrapped := WrapWithExitCode(Errorf(ErrNotFound, "missing"))
	require.Equal(t, constants.ExitNotFound, wrapped.ExitCode)
	require.ErrorIs(t, wrapped, ErrNotFound)

	// Already wrapped errors keep their code
	again := WrapWithExitCode(wrapped)
	require.Same(t, wrapped, again)
}
