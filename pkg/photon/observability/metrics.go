package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records queue metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPush records an enqueued event and the queue depth increase.
	RecordPush(ctx context.Context, queue, kind string)

	// RecordDequeue records an event leaving the backlog. It is called before
	// the event is routed, so a handler that panics still lowers the depth.
	RecordDequeue(ctx context.Context, queue string)

	// RecordDispatch records a handled event. latency spans enqueue to handler return.
	RecordDispatch(ctx context.Context, queue, kind string, latency time.Duration)

	// RecordUnmatched records a dequeued event whose kind had no handler.
	RecordUnmatched(ctx context.Context, queue, kind string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	pushes          metric.Int64Counter
	depth           metric.Int64UpDownCounter
	dispatches      metric.Int64Counter
	dispatchLatency metric.Float64Histogram
	unmatched       metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance on the global provider.
func newOtelMetrics() (*otelMetrics, error) {
	return newMeterMetrics(otel.Meter("photon"))
}

func newMeterMetrics(meter metric.Meter) (*otelMetrics, error) {

	pushes, err := meter.Int64Counter("photon.queue.pushes",
		metric.WithDescription("Number of events pushed"),
	)
	if err != nil {
		return nil, err
	}

	depth, err := meter.Int64UpDownCounter("photon.queue.depth",
		metric.WithDescription("Events waiting in the backlog"),
	)
	if err != nil {
		return nil, err
	}

	dispatches, err := meter.Int64Counter("photon.dispatch.count",
		metric.WithDescription("Number of events handed to a handler"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("photon.dispatch.latency_ms",
		metric.WithDescription("Time from push to handler return in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	unmatched, err := meter.Int64Counter("photon.dispatch.unmatched",
		metric.WithDescription("Number of events dropped because their kind had no handler"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		pushes:          pushes,
		depth:           depth,
		dispatches:      dispatches,
		dispatchLatency: dispatchLatency,
		unmatched:       unmatched,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewProviderMetricsRecorder returns a MetricsRecorder whose instruments
// come from mp instead of the global provider.
func NewProviderMetricsRecorder(mp metric.MeterProvider) (MetricsRecorder, error) {
	m, err := newMeterMetrics(mp.Meter("photon"))
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordPush records an enqueued event.
func (m *otelMetrics) RecordPush(ctx context.Context, queue, kind string) {
	m.pushes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("queue", queue),
		attribute.String("kind", kind),
	))
	m.depth.Add(ctx, 1, metric.WithAttributes(attribute.String("queue", queue)))
}

// RecordDispatch records a handled event.
func (m *otelMetrics) RecordDispatch(ctx context.Context, queue, kind string, latency time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("queue", queue),
		attribute.String("kind", kind),
	)
	m.dispatches.Add(ctx, 1, attrs)
	m.dispatchLatency.Record(ctx, float64(latency.Microseconds())/1000, attrs)
}

// RecordDequeue records an event leaving the backlog.
func (m *otelMetrics) RecordDequeue(ctx context.Context, queue string) {
	m.depth.Add(ctx, -1, metric.WithAttributes(attribute.String("queue", queue)))
}

// RecordUnmatched records a dropped event.
func (m *otelMetrics) RecordUnmatched(ctx context.Context, queue, kind string) {
	m.unmatched.Add(ctx, 1, metric.WithAttributes(
		attribute.String("queue", queue),
		attribute.String("kind", kind),
	))
}
