package photon

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/photon/pkg/photon/diag"
)

func TestDispatch_UnmatchedDropKeepsBacklogConsistent(t *testing.T) {
	q := newTestQueue(greeter)
	rec := &recorder{}
	v := greeterVisitor(rec)

	Push(q, orphan, "nobody listens")
	Push(q, sayHello, "Albert")

	q.WaitAndDispatch(v)
	assert.Empty(t, rec.all(), "no handler may run for an unmatched kind")
	assert.Equal(t, 1, q.Len())

	q.WaitAndDispatch(v)
	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, "Albert", events[0].Value)
	assert.Equal(t, uint64(1), events[0].Sequence)
	assert.Equal(t, 0, q.Len())
}

func TestDispatch_UnmatchedIsFlagged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := newFakeMetrics()
	store := diag.NewMemoryStore()
	defer store.Close()

	var hooked []*UnmatchedKindError
	q := newTestQueue(greeter,
		WithLogger(logger),
		WithMetricsRecorder(metrics),
		WithDiagnostics(store),
		WithUnmatchedHook(func(e *UnmatchedKindError) { hooked = append(hooked, e) }),
	)
	v := greeterVisitor(&recorder{})

	Push(q, orphan, "lost")
	assert.True(t, q.TryDispatch(v), "the event is consumed even though no handler ran")

	// Log line
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "Orphan", entry["kind"])
	assert.Equal(t, "drop", entry["policy"])

	// Metric
	assert.Equal(t, 1, metrics.unmatched["Orphan"])
	assert.Equal(t, 0, metrics.dispatches["Orphan"])

	// Hook
	require.Len(t, hooked, 1)
	assert.Equal(t, kindOrphan, hooked[0].Kind)
	assert.Equal(t, q.ID(), hooked[0].QueueID)
	assert.Equal(t, "test", hooked[0].Queue)
	assert.Equal(t, uint64(0), hooked[0].Sequence)
	assert.ErrorIs(t, hooked[0], ErrUnmatchedKind)

	// Diagnostics
	incidents, err := store.List(context.Background(), q.ID())
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, diag.ReasonUnmatchedKind, incidents[0].Reason)
	assert.Equal(t, "Orphan", incidents[0].Kind)
	assert.Equal(t, "test", incidents[0].QueueName)
	assert.NotContains(t, incidents[0].Detail, "lost", "payloads are never recorded")
}

func TestDispatch_UnmatchedReturnsFalse(t *testing.T) {
	q := newTestQueue(greeter)
	v := greeterVisitor(&recorder{})

	Push(q, orphan, "x")
	env, err := q.wait(context.Background())
	require.NoError(t, err)
	assert.False(t, q.Dispatcher().Dispatch(env, v))
	assert.True(t, env.Taken())
}

func TestDispatch_RejectsInvalidVisitor(t *testing.T) {
	q := newTestQueue(greeter)
	Push(q, sayHello, "x")
	env, err := q.wait(context.Background())
	require.NoError(t, err)

	partial := NewVisitor(greeter)
	On(partial, sayHello, func(Event[testKind, string]) {})

	other := NewVisitor(workshop)
	On(other, doJob, func(Event[testKind, job]) {})

	for name, v := range map[string]*Visitor[testKind]{
		"nil":           nil,
		"missing":       partial,
		"other catalog": other,
	} {
		t.Run(name, func(t *testing.T) {
			err := recoverError(t, func() { q.Dispatcher().Dispatch(env, v) })
			assert.ErrorIs(t, err, ErrInvalidVisitor)
			assert.False(t, env.Taken(), "nothing is moved out")
		})
	}
}

func TestDispatch_RejectsTakenEnvelope(t *testing.T) {
	q := newTestQueue(greeter)
	rec := &recorder{}
	v := greeterVisitor(rec)

	Push(q, sayHello, "once")
	env, err := q.wait(context.Background())
	require.NoError(t, err)
	require.True(t, q.Dispatcher().Dispatch(env, v))

	err = recoverError(t, func() { q.Dispatcher().Dispatch(env, v) })
	assert.ErrorIs(t, err, ErrEnvelopeTaken)
	err = recoverError(t, func() { q.Dispatcher().Dispatch(nil, v) })
	assert.ErrorIs(t, err, ErrEnvelopeTaken)
	assert.Len(t, rec.all(), 1)
}

func TestDispatch_UnmatchedPanicPolicy(t *testing.T) {
	metrics := newFakeMetrics()
	q := newTestQueue(greeter,
		WithUnmatchedPolicy(UnmatchedPanic),
		WithMetricsRecorder(metrics),
	)
	rec := &recorder{}
	v := greeterVisitor(rec)

	Push(q, orphan, "x")
	Push(q, sayHello, "after")

	err := recoverError(t, func() { q.WaitAndDispatch(v) })
	var unmatched *UnmatchedKindError
	require.ErrorAs(t, err, &unmatched)
	assert.Equal(t, kindOrphan, unmatched.Kind)
	assert.Equal(t, 1, metrics.unmatched["Orphan"], "drop is flagged before panicking")

	// The queue stays usable.
	assert.Equal(t, 1, q.Len())
	q.WaitAndDispatch(v)
	require.Len(t, rec.all(), 1)
}

func TestDispatch_MetricsAndSpans(t *testing.T) {
	metrics := newFakeMetrics()
	spans := &fakeSpans{}
	q := newTestQueue(greeter, WithMetricsRecorder(metrics), WithSpanManager(spans))
	v := greeterVisitor(&recorder{})

	Push(q, sayHello, "a")
	Push(q, sayHello, "b")
	Push(q, sayGoodbye, 1)
	for q.TryDispatch(v) {
	}

	assert.Equal(t, 2, metrics.pushes["SayHello"])
	assert.Equal(t, 1, metrics.pushes["SayGoodbye"])
	assert.Equal(t, 2, metrics.dispatches["SayHello"])
	assert.Equal(t, 1, metrics.dispatches["SayGoodbye"])
	assert.Equal(t, 3, metrics.dequeues)

	assert.Equal(t, []string{"SayHello", "SayHello", "SayGoodbye"}, spans.started)
	assert.Equal(t, []error{nil, nil, nil}, spans.ended)
	assert.Equal(t, []string{"dequeued", "dequeued", "dequeued"}, spans.events)
}

func TestDispatch_SpanEndsWhenHandlerPanics(t *testing.T) {
	spans := &fakeSpans{}
	q := newTestQueue(greeter, WithSpanManager(spans))
	v := NewVisitor(greeter)
	On(v, sayHello, func(Event[testKind, string]) { panic("boom") })
	On(v, sayGoodbye, func(Event[testKind, uint32]) {})

	Push(q, sayHello, "x")
	assert.PanicsWithValue(t, "boom", func() { q.WaitAndDispatch(v) })

	require.Len(t, spans.ended, 1)
	assert.ErrorIs(t, spans.ended[0], errHandlerPanicked)
}

func TestDispatch_DebugLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	q := newTestQueue(greeter, WithLogger(logger))
	v := greeterVisitor(&recorder{})

	Push(q, sayHello, "x")
	q.WaitAndDispatch(v)

	out := buf.String()
	assert.Contains(t, out, `"msg":"event pushed"`)
	assert.Contains(t, out, `"msg":"event dispatched"`)
	assert.Contains(t, out, `"kind":"SayHello"`)
}

func TestParseUnmatchedPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    UnmatchedPolicy
		wantErr bool
	}{
		{"drop", UnmatchedDrop, false},
		{"PANIC", UnmatchedPanic, false},
		{"ignore", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnmatchedPolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.ToLower(tt.in), got.String())
		})
	}
	assert.Equal(t, "UnmatchedPolicy(7)", UnmatchedPolicy(7).String())
}

// failingStore fails every write.
type failingStore struct{ diag.Store }

func (failingStore) Record(context.Context, diag.Incident) error {
	return diag.ErrStoreClosed
}

func TestDispatch_DiagnosticsFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	q := newTestQueue(greeter, WithLogger(logger), WithDiagnostics(failingStore{}))
	v := greeterVisitor(&recorder{})

	Push(q, orphan, "x")
	assert.NotPanics(t, func() { q.TryDispatch(v) })
	assert.Contains(t, buf.String(), "diagnostics record failed")
}
