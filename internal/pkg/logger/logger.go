package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Initialize creates and configures the default logger.
// level overrides the environment default when it is one of debug, info, warn, error.
func Initialize(env string, level string) *slog.Logger {
	return InitializeWriter(os.Stdout, env, level)
}

// InitializeWriter is Initialize with the records sent to w
func InitializeWriter(w io.Writer, env string, level string) *slog.Logger {
	defaultLogger = slog.New(newHandler(w, env, level))
	slog.SetDefault(defaultLogger)

	return defaultLogger
}

func newHandler(w io.Writer, env string, level string) slog.Handler {
	if env == "production" {
		// JSON logging for production
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     parseLevel(level, slog.LevelInfo),
			AddSource: false,
		})
	}

	// Pretty text logging for development
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     parseLevel(level, slog.LevelDebug),
		AddSource: true,
	})
}

func parseLevel(level string, fallback slog.Level) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

// Get returns the default logger instance
func Get() *slog.Logger {
	if defaultLogger == nil {
		return Initialize("development", "")
	}
	return defaultLogger
}

// NewServiceLogger creates a logger for a specific service
func NewServiceLogger(serviceName string) *slog.Logger {
	return Get().With(slog.String("service", serviceName))
}

// Discard returns a logger that drops every record, for tests
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
