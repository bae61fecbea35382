package photon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emirpasic/gods/v2/queues/linkedlistqueue"
	"github.com/google/uuid"

	"github.com/randalmurphal/photon/pkg/photon/observability"
)

// Queue is an unbounded FIFO of events whose kinds come from one catalog.
//
// Any number of goroutines may Push concurrently, and any number may consume
// concurrently. Each event is delivered to exactly one consumer, in push
// order; which consumer gets which event is unspecified. Handlers never run
// under the queue lock.
type Queue[K comparable] struct {
	catalog    *Catalog[K]
	id         uint64
	name       string
	logger     *slog.Logger
	metrics    observability.MetricsRecorder
	dispatcher *Dispatcher[K]

	mu      sync.Mutex
	cond    *sync.Cond
	backlog *linkedlistqueue.Queue[*Envelope[K]]
	next    uint64
}

// NewQueue creates an empty queue for catalog's kinds.
// The queue takes the next id from its IDAllocator (DefaultIDs unless
// WithIDAllocator is given). An empty name becomes "queue-" followed by eight
// hex digits.
//
// Panics if catalog is nil.
func NewQueue[K comparable](catalog *Catalog[K], name string, opts ...QueueOption) *Queue[K] {
	if catalog == nil {
		panic("photon: queue catalog cannot be nil")
	}

	cfg := defaultQueueConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if name == "" {
		name = "queue-" + uuid.NewString()[:8]
	}

	q := &Queue[K]{
		catalog: catalog,
		id:      cfg.ids.Next(),
		name:    name,
		logger:  cfg.logger,
		metrics: cfg.metrics,
		backlog: linkedlistqueue.New[*Envelope[K]](),
	}
	q.cond = sync.NewCond(&q.mu)
	q.dispatcher = newDispatcher(catalog, name, q.id, cfg)

	observability.LogQueueCreated(q.logger, name, q.id, catalog.Len())
	return q
}

// Push appends value to q as an event of key's kind.
// The compiler checks value against the key's payload type.
//
// A kind the catalog does not declare is accepted and handled by the queue's
// unmatched policy when dispatched. Panics with ErrPayloadTypeMismatch if the
// catalog declares key's kind with a different payload type.
func Push[K comparable, T any](q *Queue[K], key Key[K, T], value T) {
	if want, ok := q.catalog.PayloadType(key.kind); ok && want != key.typ {
		panic(fmt.Errorf("photon: push %s to queue %s: %w: catalog declares %v, key carries %v",
			q.catalog.kindName(key.kind), q.name, ErrPayloadTypeMismatch, want, key.typ))
	}
	q.push(key.kind, value)
}

// push enqueues one envelope and wakes one waiting consumer.
func (q *Queue[K]) push(kind K, payload any) {
	now := time.Now()

	q.mu.Lock()
	env := &Envelope[K]{
		kind:       kind,
		queueID:    q.id,
		sequence:   q.next,
		payload:    payload,
		enqueuedAt: now,
	}
	q.next++
	q.backlog.Enqueue(env)
	// Recorded under the lock so depth never dips below zero.
	name := q.catalog.kindName(kind)
	q.metrics.RecordPush(context.Background(), q.name, name)
	q.mu.Unlock()
	q.cond.Signal()

	observability.LogPush(q.logger, q.name, name, env.sequence)
}

// WaitAndDispatch blocks until an event is available, removes the oldest one,
// and dispatches it to v. It processes exactly one event per call; loop to
// keep consuming.
//
// Panics with ErrInvalidVisitor, before removing anything, if v fails
// Validate or was built for a different catalog. Handler panics propagate to
// the caller.
func (q *Queue[K]) WaitAndDispatch(v *Visitor[K]) {
	q.mustAccept(v)
	env, _ := q.wait(context.Background())
	q.dispatcher.dispatch(context.Background(), env, v)
}

// WaitAndDispatchContext is WaitAndDispatch with cancellation. It returns
// ctx.Err() if ctx ends while the queue is empty. An event already waiting is
// dispatched even when ctx is done.
func (q *Queue[K]) WaitAndDispatchContext(ctx context.Context, v *Visitor[K]) error {
	q.mustAccept(v)
	env, err := q.wait(ctx)
	if err != nil {
		return err
	}
	q.dispatcher.dispatch(ctx, env, v)
	return nil
}

// TryDispatch dispatches the oldest event to v if one is waiting and reports
// whether it did. It never blocks.
func (q *Queue[K]) TryDispatch(v *Visitor[K]) bool {
	q.mustAccept(v)

	q.mu.Lock()
	env, ok := q.backlog.Dequeue()
	q.mu.Unlock()
	if !ok {
		return false
	}
	q.dispatcher.dispatch(context.Background(), env, v)
	return true
}

// wait pops the head of the backlog, parking on the condition variable while
// it is empty. Only a context that can end makes wait return an error.
func (q *Queue[K]) wait(ctx context.Context) (*Envelope[K], error) {
	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		})
		defer stop()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for q.backlog.Empty() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.cond.Wait()
	}
	env, _ := q.backlog.Dequeue()
	return env, nil
}

// mustAccept panics unless v is a valid visitor for q's catalog.
func (q *Queue[K]) mustAccept(v *Visitor[K]) {
	q.dispatcher.mustAccept(v)
}

// ID returns the queue's id.
func (q *Queue[K]) ID() uint64 {
	return q.id
}

// Name returns the queue's name.
func (q *Queue[K]) Name() string {
	return q.name
}

// Catalog returns the queue's catalog.
func (q *Queue[K]) Catalog() *Catalog[K] {
	return q.catalog
}

// Dispatcher returns the queue's dispatcher.
func (q *Queue[K]) Dispatcher() *Dispatcher[K] {
	return q.dispatcher
}

// Len returns the number of events waiting.
func (q *Queue[K]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.backlog.Size()
}

// Sequence returns the sequence number the next Push will be assigned.
func (q *Queue[K]) Sequence() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.next
}
