package optigo

import (
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with optigo-specific helpers for consistent
// field names across index builds and clustering runs.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler falls
// back to an info-level text handler on stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger with human-readable output at the given
// level.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewJSONLogger creates a Logger with JSON output at the given level.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	}))
}

// LogIndexBuild logs the construction of a spatial index.
func (l *Logger) LogIndexBuild(kind string, n int, eps float32, elapsed time.Duration, err error) {
	if err != nil {
		l.Error("index build failed",
			"kind", kind,
			"points", n,
			"error", err,
		)
		return
	}
	l.Debug("index built",
		"kind", kind,
		"points", n,
		"epsilon", eps,
		"elapsed", elapsed,
	)
}

// LogOrdering logs one OPTICS run.
func (l *Logger) LogOrdering(n, minPts int, eps float32, elapsed time.Duration) {
	l.Debug("ordering completed",
		"points", n,
		"min_points", minPts,
		"epsilon", eps,
		"elapsed", elapsed,
	)
}

// LogExtraction logs one extraction pass.
func (l *Logger) LogExtraction(method string, clusters int, elapsed time.Duration) {
	l.Debug("extraction completed",
		"method", method,
		"clusters", clusters,
		"elapsed", elapsed,
	)
}
