package photon

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/randalmurphal/photon/pkg/photon/diag"
	"github.com/randalmurphal/photon/pkg/photon/observability"
)

// UnmatchedPolicy decides what happens to an event whose kind has no catalog
// entry. Either way the drop is logged, counted, passed to the unmatched hook,
// and recorded in diagnostics.
type UnmatchedPolicy int

const (
	// UnmatchedDrop discards the event and carries on.
	UnmatchedDrop UnmatchedPolicy = iota

	// UnmatchedPanic discards the event, then panics with *UnmatchedKindError.
	UnmatchedPanic
)

// String returns the policy name used in configuration.
func (p UnmatchedPolicy) String() string {
	switch p {
	case UnmatchedDrop:
		return "drop"
	case UnmatchedPanic:
		return "panic"
	default:
		return fmt.Sprintf("UnmatchedPolicy(%d)", int(p))
	}
}

// ParseUnmatchedPolicy parses "drop" or "panic" (case-insensitive).
func ParseUnmatchedPolicy(s string) (UnmatchedPolicy, error) {
	switch strings.ToLower(s) {
	case "drop":
		return UnmatchedDrop, nil
	case "panic":
		return UnmatchedPanic, nil
	default:
		return 0, fmt.Errorf("unknown unmatched policy %q (want drop or panic)", s)
	}
}

// UnmatchedHook is called for every event dropped because its kind has no
// catalog entry. It runs on the consumer goroutine.
type UnmatchedHook func(*UnmatchedKindError)

// queueConfig holds the settings a Queue and its Dispatcher are built with.
type queueConfig struct {
	ids       *IDAllocator
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
	unmatched UnmatchedPolicy
	hook      UnmatchedHook
	diag      diag.Store
}

// defaultQueueConfig returns the default queue configuration.
func defaultQueueConfig() queueConfig {
	return queueConfig{
		ids:     DefaultIDs,
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// QueueOption configures a Queue.
type QueueOption func(*queueConfig)

// WithIDAllocator draws the queue id from ids instead of DefaultIDs.
func WithIDAllocator(ids *IDAllocator) QueueOption {
	return func(c *queueConfig) {
		if ids != nil {
			c.ids = ids
		}
	}
}

// WithLogger sets the logger for queue events.
// Default: slog.Default(). Pass nil to disable logging.
func WithLogger(logger *slog.Logger) QueueOption {
	return func(c *queueConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics using the global meter provider.
// Default: disabled.
func WithMetrics(enabled bool) QueueOption {
	return func(c *queueConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder sets a custom metrics recorder.
func WithMetricsRecorder(r observability.MetricsRecorder) QueueOption {
	return func(c *queueConfig) {
		if r != nil {
			c.metrics = r
		}
	}
}

// WithTracing enables OpenTelemetry dispatch spans using the global tracer
// provider. Default: disabled.
func WithTracing(enabled bool) QueueOption {
	return func(c *queueConfig) {
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithSpanManager sets a custom span manager.
func WithSpanManager(m observability.SpanManager) QueueOption {
	return func(c *queueConfig) {
		if m != nil {
			c.spans = m
		}
	}
}

// WithUnmatchedPolicy sets what happens to events whose kind has no catalog
// entry. Default: UnmatchedDrop.
func WithUnmatchedPolicy(p UnmatchedPolicy) QueueOption {
	return func(c *queueConfig) {
		c.unmatched = p
	}
}

// WithUnmatchedHook registers fn to observe dropped events.
func WithUnmatchedHook(fn UnmatchedHook) QueueOption {
	return func(c *queueConfig) {
		c.hook = fn
	}
}

// WithDiagnostics records unmatched kinds and handler panics in store.
// The queue does not close the store.
func WithDiagnostics(store diag.Store) QueueOption {
	return func(c *queueConfig) {
		c.diag = store
	}
}
