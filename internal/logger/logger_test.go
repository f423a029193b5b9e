package logger

import (
	"testing"

	"github.com/charliek/objstore/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		cfg   *Config
		level zapcore.Level
	}{
		{name: "nil config", cfg: nil, level: zapcore.WarnLevel},
		{name: "defaults", cfg: &Config{}, level: zapcore.WarnLevel},
		{name: "debug console", cfg: &Config{Level: "debug", Format: "console"}, level: zapcore.DebugLevel},
		{name: "info json", cfg: &Config{Level: "info", Format: "json"}, level: zapcore.InfoLevel},
		{name: "error", cfg: &Config{Level: "error"}, level: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			require.True(t, log.Core().Enabled(tt.level))
			if tt.level > zapcore.DebugLevel {
				require.False(t, log.Core().Enabled(tt.level-1))
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, (&Config{}).Validate())
	require.NoError(t, (&Config{Level: "WARN", Format: "json"}).Validate())

	err := (&Config{Level: "loud"}).Validate()
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
	require.ErrorContains(t, err, "invalid log level")

	err = (&Config{Format: "xml"}).Validate()
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
	require.ErrorContains(t, err, "invalid log format")
}
