// Package observability provides the logging, metrics, and tracing hooks
// photon queues report through.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// NewLogger builds a logger writing to w.
// level is one of debug, info, warn, error; format is text or json.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "", "info":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// EnrichLogger adds queue context to a logger.
// Returns a new logger with queue and queue_id fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "input", 3)
//	enriched.Info("draining") // includes queue, queue_id
func EnrichLogger(logger *slog.Logger, queue string, queueID uint64) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("queue", queue),
		slog.Uint64("queue_id", queueID),
	)
}

// LogQueueCreated logs queue construction.
func LogQueueCreated(logger *slog.Logger, queue string, queueID uint64, kinds int) {
	if logger == nil {
		return
	}
	logger.Debug("queue created",
		slog.String("queue", queue),
		slog.Uint64("queue_id", queueID),
		slog.Int("kinds", kinds),
	)
}

// LogPush logs an enqueued event.
func LogPush(logger *slog.Logger, queue, kind string, sequence uint64) {
	if logger == nil {
		return
	}
	logger.Debug("event pushed",
		slog.String("queue", queue),
		slog.String("kind", kind),
		slog.Uint64("sequence", sequence),
	)
}

// LogDispatch logs a handled event.
func LogDispatch(logger *slog.Logger, queue, kind string, sequence uint64, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("event dispatched",
		slog.String("queue", queue),
		slog.String("kind", kind),
		slog.Uint64("sequence", sequence),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogUnmatched logs an event whose kind has no catalog entry.
func LogUnmatched(logger *slog.Logger, queue, kind string, sequence uint64, policy string) {
	if logger == nil {
		return
	}
	logger.Warn("event kind not in catalog",
		slog.String("queue", queue),
		slog.String("kind", kind),
		slog.Uint64("sequence", sequence),
		slog.String("policy", policy),
	)
}

// LogHandlerPanic logs a handler that panicked.
func LogHandlerPanic(logger *slog.Logger, queue, kind string, sequence uint64, value any, stack string) {
	if logger == nil {
		return
	}
	logger.Error("handler panicked",
		slog.String("queue", queue),
		slog.String("kind", kind),
		slog.Uint64("sequence", sequence),
		slog.String("panic", fmt.Sprint(value)),
		slog.String("stack", stack),
	)
}

// LogConsumerStopped logs the end of a consumer loop.
func LogConsumerStopped(logger *slog.Logger, queue string, dispatched int, err error) {
	if logger == nil {
		return
	}
	if err != nil {
		logger.Warn("consumer stopped",
			slog.String("queue", queue),
			slog.Int("dispatched", dispatched),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Info("consumer stopped",
		slog.String("queue", queue),
		slog.Int("dispatched", dispatched),
	)
}

// LogDiagnosticsError logs a failed diagnostics write (non-fatal).
func LogDiagnosticsError(logger *slog.Logger, queue string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("diagnostics record failed",
		slog.String("queue", queue),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
