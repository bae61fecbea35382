package photon

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Test kinds shared across tests.
type testKind int

const (
	kindHello testKind = iota
	kindGoodbye
	kindJob
	kindOrphan
)

func (k testKind) String() string {
	switch k {
	case kindHello:
		return "SayHello"
	case kindGoodbye:
		return "SayGoodbye"
	case kindJob:
		return "Job"
	case kindOrphan:
		return "Orphan"
	default:
		return fmt.Sprintf("testKind(%d)", int(k))
	}
}

// job identifies one push in concurrency tests.
type job struct {
	Producer int
	N        int
}

var (
	sayHello   = Declare[string](kindHello)
	sayGoodbye = Declare[uint32](kindGoodbye)
	doJob      = Declare[job](kindJob)

	// orphan is never part of a catalog.
	orphan = Declare[string](kindOrphan)

	greeter  = MustCatalog[testKind]("greeter", sayHello, sayGoodbye)
	workshop = MustCatalog[testKind]("workshop", doJob)
)

// newTestQueue creates a quiet queue with its own id allocator.
func newTestQueue[K comparable](c *Catalog[K], opts ...QueueOption) *Queue[K] {
	base := []QueueOption{WithIDAllocator(NewIDAllocator()), WithLogger(nil)}
	return NewQueue(c, "test", append(base, opts...)...)
}

// recorded is one handler invocation.
type recorded struct {
	Kind     testKind
	QueueID  uint64
	Sequence uint64
	Value    any
}

// recorder collects handler invocations from any goroutine.
type recorder struct {
	mu     sync.Mutex
	events []recorded
}

func (r *recorder) add(e recorded) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recorded, len(r.events))
	copy(out, r.events)
	return out
}

// greeterVisitor binds both greeter kinds to rec.
func greeterVisitor(rec *recorder) *Visitor[testKind] {
	v := NewVisitor(greeter)
	On(v, sayHello, func(e Event[testKind, string]) {
		rec.add(recorded{e.Kind, e.QueueID, e.Sequence, e.Value})
	})
	On(v, sayGoodbye, func(e Event[testKind, uint32]) {
		rec.add(recorded{e.Kind, e.QueueID, e.Sequence, e.Value})
	})
	return v
}

// recoverError runs fn and returns the error it panicked with.
func recoverError(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		e, ok := r.(error)
		require.True(t, ok, "expected panic with error, got %T: %v", r, r)
		err = e
	}()
	fn()
	return nil
}

// waitFor fails the test if ch is not closed within d.
func waitFor(t *testing.T, ch <-chan struct{}, d time.Duration) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(d):
		t.Fatalf("timed out after %s", d)
	}
}

// fakeMetrics counts recorder calls by kind.
type fakeMetrics struct {
	mu         sync.Mutex
	pushes     map[string]int
	dequeues   int
	dispatches map[string]int
	unmatched  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		pushes:     map[string]int{},
		dispatches: map[string]int{},
		unmatched:  map[string]int{},
	}
}

func (m *fakeMetrics) RecordPush(_ context.Context, _, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes[kind]++
}

func (m *fakeMetrics) RecordDequeue(context.Context, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dequeues++
}

func (m *fakeMetrics) RecordDispatch(_ context.Context, _, kind string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatches[kind]++
}

func (m *fakeMetrics) RecordUnmatched(_ context.Context, _, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unmatched[kind]++
}

// fakeSpans records span starts and how they ended.
type fakeSpans struct {
	mu      sync.Mutex
	started []string
	ended   []error
	events  []string
}

func (s *fakeSpans) StartDispatchSpan(ctx context.Context, _, kind string, _ uint64) (context.Context, trace.Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = append(s.started, kind)
	return ctx, noop.Span{}
}

func (s *fakeSpans) EndSpanWithError(_ trace.Span, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = append(s.ended, err)
}

func (s *fakeSpans) AddSpanEvent(_ context.Context, name string, _ ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, name)
}
