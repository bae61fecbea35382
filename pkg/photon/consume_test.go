package photon

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/randalmurphal/photon/pkg/photon/diag"
	"github.com/randalmurphal/photon/pkg/photon/observability"
)

func TestConsume_StopsWhenDone(t *testing.T) {
	q := newTestQueue(greeter)
	rec := &recorder{}
	v := greeterVisitor(rec)

	for i := range 5 {
		Push(q, sayGoodbye, uint32(i))
	}

	err := Consume(context.Background(), q, v, func() bool {
		return len(rec.all()) == 3
	})
	require.NoError(t, err)
	assert.Len(t, rec.all(), 3)
	assert.Equal(t, 2, q.Len())
}

func TestConsume_HandlerSetsDone(t *testing.T) {
	q := newTestQueue(greeter)
	var stop atomic.Bool
	var got []string

	v := NewVisitor(greeter)
	On(v, sayHello, func(e Event[testKind, string]) {
		got = append(got, e.Value)
	})
	On(v, sayGoodbye, func(Event[testKind, uint32]) {
		stop.Store(true)
	})

	Push(q, sayHello, "a")
	Push(q, sayHello, "b")
	Push(q, sayGoodbye, 0)
	Push(q, sayHello, "never")

	require.NoError(t, Consume(context.Background(), q, v, stop.Load))
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, q.Len())
}

func TestConsume_ContextCancel(t *testing.T) {
	q := newTestQueue(greeter)
	v := greeterVisitor(&recorder{})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- Consume(ctx, q, v, nil)
	}()

	Push(q, sayHello, "one")
	require.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

func TestConsume_HandlerPanic(t *testing.T) {
	store := diag.NewMemoryStore()
	defer store.Close()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	q := newTestQueue(greeter, WithDiagnostics(store), WithLogger(logger))
	v := NewVisitor(greeter)
	On(v, sayHello, func(e Event[testKind, string]) {
		if e.Value == "bad" {
			panic("cannot greet")
		}
	})
	On(v, sayGoodbye, func(Event[testKind, uint32]) {})

	Push(q, sayHello, "fine")
	Push(q, sayHello, "bad")
	Push(q, sayHello, "after")

	err := Consume(context.Background(), q, v, nil)
	var perr *PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "test", perr.Queue)
	assert.Equal(t, "SayHello", perr.Kind)
	assert.Equal(t, uint64(1), perr.Sequence)
	assert.Equal(t, "cannot greet", perr.Value)
	assert.Contains(t, perr.Stack, "consume_test.go")
	assert.Nil(t, perr.Unwrap())
	assert.Contains(t, perr.Error(), "cannot greet")

	// The remaining event is still queued.
	assert.Equal(t, 1, q.Len())

	incidents, err := store.List(context.Background(), q.ID())
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, diag.ReasonHandlerPanic, incidents[0].Reason)
	assert.Equal(t, uint64(1), incidents[0].Sequence)
	assert.Equal(t, "cannot greet", incidents[0].Detail)

	out := buf.String()
	assert.Contains(t, out, "handler panicked")
	assert.Contains(t, out, "consumer stopped")
}

func TestConsume_PanicWithError(t *testing.T) {
	sentinel := errors.New("broken handler")
	q := newTestQueue(greeter)
	v := NewVisitor(greeter)
	On(v, sayHello, func(Event[testKind, string]) { panic(sentinel) })
	On(v, sayGoodbye, func(Event[testKind, uint32]) {})

	Push(q, sayHello, "x")
	err := Consume(context.Background(), q, v, nil)
	assert.ErrorIs(t, err, sentinel)
}

func TestConsume_UnmatchedUnderPanicPolicy(t *testing.T) {
	store := diag.NewMemoryStore()
	defer store.Close()
	q := newTestQueue(greeter, WithUnmatchedPolicy(UnmatchedPanic), WithDiagnostics(store))
	v := greeterVisitor(&recorder{})

	Push(q, orphan, "x")
	err := Consume(context.Background(), q, v, nil)

	var unmatched *UnmatchedKindError
	require.ErrorAs(t, err, &unmatched)
	assert.ErrorIs(t, err, ErrUnmatchedKind)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count, "recorded once, as unmatched")
}

func TestConsume_UnmatchedUnderDropPolicyContinues(t *testing.T) {
	q := newTestQueue(greeter)
	rec := &recorder{}
	v := greeterVisitor(rec)

	Push(q, orphan, "x")
	Push(q, sayHello, "y")

	calls := 0
	err := Consume(context.Background(), q, v, func() bool {
		calls++
		return calls == 2
	})
	require.NoError(t, err)
	require.Len(t, rec.all(), 1)
	assert.Equal(t, "y", rec.all()[0].Value)
}

func TestConsume_InvalidVisitorPanics(t *testing.T) {
	q := newTestQueue(greeter)
	v := NewVisitor(greeter)
	Push(q, sayHello, "x")

	err := recoverError(t, func() {
		_ = Consume(context.Background(), q, v, nil)
	})
	assert.ErrorIs(t, err, ErrInvalidVisitor)
	assert.Equal(t, 1, q.Len())
}

func TestConsume_Workers(t *testing.T) {
	const total = 200
	q := newTestQueue(workshop)
	var handled atomic.Int64

	v := NewVisitor(workshop)
	On(v, doJob, func(Event[testKind, job]) { handled.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 3)
	for range 3 {
		go func() { errs <- Consume(ctx, q, v, nil) }()
	}
	for i := range total {
		Push(q, doJob, job{N: i})
	}

	require.Eventually(t, func() bool { return handled.Load() == total }, 5*time.Second, time.Millisecond)
	cancel()
	for range 3 {
		assert.ErrorIs(t, <-errs, context.Canceled)
	}
}

func TestConsume_LogsDispatchedCount(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	q := newTestQueue(greeter, WithLogger(logger))
	v := greeterVisitor(&recorder{})

	Push(q, sayHello, "a")
	Push(q, sayHello, "b")
	n := 0
	require.NoError(t, Consume(context.Background(), q, v, func() bool {
		n++
		return n == 2
	}))
	assert.Contains(t, buf.String(), "dispatched=2")
}

func TestConsume_DepthAfterHandlerPanic(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	recorder, err := observability.NewProviderMetricsRecorder(provider)
	require.NoError(t, err)

	q := newTestQueue(greeter, WithMetricsRecorder(recorder))
	v := NewVisitor(greeter)
	On(v, sayHello, func(Event[testKind, string]) { panic("cannot greet") })
	On(v, sayGoodbye, func(Event[testKind, uint32]) {})

	Push(q, sayHello, "x")
	Push(q, orphan, "y")
	var perr *PanicError
	require.ErrorAs(t, Consume(context.Background(), q, v, nil), &perr)
	require.True(t, q.TryDispatch(v), "the orphan is dropped")
	assert.Equal(t, 0, q.Len())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var depth *metricdata.Sum[int64]
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "photon.queue.depth" {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				depth = &sum
			}
		}
	}
	require.NotNil(t, depth)
	var total int64
	for _, dp := range depth.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(0), total, "the panicked and dropped events both left the backlog")
}
