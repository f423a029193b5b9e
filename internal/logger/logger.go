package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/charliek/objstore/internal/domain"
)

// Logging defaults
const (
	DefaultLevel  = "warn"
	DefaultFormat = FormatConsole

	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config controls log level and encoding
type Config struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Validate checks the level and format names
func (c *Config) Validate() error {
	if c.Level != "" {
		if _, err := zapcore.ParseLevel(c.Level); err != nil {
			return domain.Errorf(domain.ErrInvalidConfig, "invalid log level %q", c.Level)
		}
	}
	switch c.Format {
	case "", FormatConsole, FormatJSON:
	default:
		return domain.Errorf(domain.ErrInvalidConfig, "invalid log format %q (expected console or json)", c.Format)
	}
	return nil
}

// New creates a new zap logger based on the configuration.
func New(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	levelName := cfg.Level
	if levelName == "" {
		levelName = DefaultLevel
	}
	level, _ := zapcore.ParseLevel(levelName)

	var config zap.Config
	if level == zapcore.DebugLevel {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = zap.NewAtomicLevelAt(level)

	// Set format based on configuration
	if cfg.Format == FormatJSON {
		config.Encoding = "json"
	} else {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	}

	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.MessageKey = "message"
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build()
}
