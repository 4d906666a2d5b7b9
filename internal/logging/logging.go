// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"budget-auditor/internal/models"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "budget-auditor", "logs", "auditor.log"),
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		writers = append(writers, consoleWriter)
	}

	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			}
			writers = append(writers, fileWriter)
		}
	}

	var writer io.Writer
	if len(writers) == 0 {
		writer = os.Stdout
	} else if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// ContextKey is the type for context keys.
type ContextKey string

// LoggerKey is the context key for the logger.
const LoggerKey ContextKey = "logger"

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithSector adds a (state, sector) key to the logger context.
func WithSector(logger zerolog.Logger, key models.SectorKey) zerolog.Logger {
	return logger.With().Str("state", key.State).Str("sector", key.Sector).Logger()
}

// WithContractor adds a contractor name to the logger context.
func WithContractor(logger zerolog.Logger, contractor string) zerolog.Logger {
	return logger.With().Str("contractor", contractor).Logger()
}

// LogSpike logs a spike alert emission.
func LogSpike(logger zerolog.Logger, alert *models.AlertRecord) {
	logger.Warn().
		Str("event", "spike_alert").
		Str("source_event_id", alert.SourceEventID).
		Str("state", alert.State).
		Str("sector", alert.Sector).
		Str("contractor", alert.Contractor).
		Float64("amount", alert.Amount).
		Float64("sector_mean", alert.SectorMean).
		Float64("ratio", alert.SpikeRatio).
		Msg("Spending spike detected")
}

// LogThresholdCross logs a cumulative-threshold alert emission.
func LogThresholdCross(logger zerolog.Logger, alert *models.AlertRecord) {
	logger.Warn().
		Str("event", "cumulative_threshold_alert").
		Str("source_event_id", alert.SourceEventID).
		Str("contractor", alert.Contractor).
		Float64("cumulative_amount", alert.CumulativeAmount).
		Float64("ceiling", alert.Ceiling).
		Msg("Contractor spend ceiling crossed")
}

// LogRejected logs a malformed event rejected at ingress.
func LogRejected(logger zerolog.Logger, err error) {
	logger.Warn().
		Str("event", "rejected").
		Err(err).
		Msg("Malformed event rejected")
}
