package util

import (
	"io"
	"log/slog"
	"os"
)

// LogLevel is the minimum severity a logger will emit.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat selects the slog handler a logger is built around.
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// LoggerConfig configures NewLogger.
type LoggerConfig struct {
	Level  LogLevel
	Format LogFormat
	Output io.Writer
}

// DefaultLoggerConfig is info-level JSON to stderr, used when
// IMPORTJS_LOG_LEVEL isn't set. stdout is left to the MCP stdio transport
// that `importjs serve` speaks on.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: os.Stderr,
	}
}

// LoggerConfigFromEnv starts from DefaultLoggerConfig and applies an
// IMPORTJS_LOG_LEVEL override (debug/info/warn/error) if set and valid,
// so `importjs serve` can be run noisier without a recompile.
func LoggerConfigFromEnv() LoggerConfig {
	cfg := DefaultLoggerConfig()
	switch LogLevel(os.Getenv("IMPORTJS_LOG_LEVEL")) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		cfg.Level = LogLevel(os.Getenv("IMPORTJS_LOG_LEVEL"))
	}
	return cfg
}

// NewLogger builds a structured logger from config.
func NewLogger(config LoggerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(config.Level)}

	var handler slog.Handler
	switch config.Format {
	case FormatText:
		handler = slog.NewTextHandler(config.Output, opts)
	default:
		handler = slog.NewJSONHandler(config.Output, opts)
	}

	return slog.New(handler)
}

func parseLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefault installs logger as the slog package default, so any
// dependency that falls back to slog.Default() (e.g. ParserManager/
// QueryManager constructed with a nil logger) still logs consistently.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
