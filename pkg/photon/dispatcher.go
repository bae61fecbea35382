package photon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/photon/pkg/photon/diag"
	"github.com/randalmurphal/photon/pkg/photon/observability"
)

// errHandlerPanicked marks dispatch spans whose handler did not return.
var errHandlerPanicked = errors.New("handler panicked")

// Dispatcher routes a dequeued envelope to the visitor handler bound for its
// kind. Each queue owns one; it never holds the queue lock.
type Dispatcher[K comparable] struct {
	catalog   *Catalog[K]
	queue     string
	queueID   uint64
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
	unmatched UnmatchedPolicy
	hook      UnmatchedHook
	diag      diag.Store
}

func newDispatcher[K comparable](catalog *Catalog[K], queue string, queueID uint64, cfg queueConfig) *Dispatcher[K] {
	return &Dispatcher[K]{
		catalog:   catalog,
		queue:     queue,
		queueID:   queueID,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		spans:     cfg.spans,
		unmatched: cfg.unmatched,
		hook:      cfg.hook,
		diag:      cfg.diag,
	}
}

// Policy returns the dispatcher's unmatched-kind policy.
func (d *Dispatcher[K]) Policy() UnmatchedPolicy {
	return d.unmatched
}

// Dispatch moves env's payload into the handler v binds for env's kind and
// reports whether a handler ran. An envelope whose kind has no catalog entry
// is handled by the unmatched policy.
//
// Panics with ErrInvalidVisitor if v fails Validate or was built for another
// catalog, and with ErrEnvelopeTaken if env is nil or already dispatched.
func (d *Dispatcher[K]) Dispatch(env *Envelope[K], v *Visitor[K]) bool {
	d.mustAccept(v)
	if env == nil || env.Taken() {
		panic(fmt.Errorf("photon: queue %s: %w", d.queue, ErrEnvelopeTaken))
	}
	return d.dispatch(context.Background(), env, v)
}

// mustAccept panics unless v is a valid visitor for d's catalog.
func (d *Dispatcher[K]) mustAccept(v *Visitor[K]) {
	if v == nil {
		panic(fmt.Errorf("photon: queue %s: %w: nil visitor", d.queue, ErrInvalidVisitor))
	}
	if v.catalog != d.catalog {
		panic(fmt.Errorf("photon: queue %s: %w: built for catalog %s, queue uses %s",
			d.queue, ErrInvalidVisitor, v.catalog.name, d.catalog.name))
	}
	if err := v.Validate(); err != nil {
		panic(fmt.Errorf("photon: queue %s: %w: %w", d.queue, ErrInvalidVisitor, err))
	}
}

func (d *Dispatcher[K]) dispatch(ctx context.Context, env *Envelope[K], v *Visitor[K]) bool {
	d.metrics.RecordDequeue(ctx, d.queue)

	pos, ok := d.catalog.position(env.kind)
	if !ok {
		d.drop(ctx, env)
		return false
	}

	kind := d.catalog.names[pos]
	ctx, span := d.spans.StartDispatchSpan(ctx, d.queue, kind, env.sequence)
	done := observability.TimedOperation()
	completed := false
	defer func() {
		if completed {
			d.spans.EndSpanWithError(span, nil)
		} else {
			d.spans.EndSpanWithError(span, errHandlerPanicked)
		}
	}()

	wait := time.Since(env.enqueuedAt)
	d.spans.AddSpanEvent(ctx, "dequeued",
		attribute.Float64("queue.wait_ms", float64(wait.Microseconds())/1000))

	v.ops[pos](env)
	completed = true

	d.metrics.RecordDispatch(ctx, d.queue, kind, time.Since(env.enqueuedAt))
	observability.LogDispatch(d.logger, d.queue, kind, env.sequence, done())
	return true
}

// drop discards an envelope whose kind has no catalog entry and flags it.
func (d *Dispatcher[K]) drop(ctx context.Context, env *Envelope[K]) {
	env.take()
	kind := d.catalog.kindName(env.kind)

	observability.LogUnmatched(d.logger, d.queue, kind, env.sequence, d.unmatched.String())
	d.metrics.RecordUnmatched(ctx, d.queue, kind)

	info := &UnmatchedKindError{
		Queue:    d.queue,
		QueueID:  d.queueID,
		Kind:     env.kind,
		Sequence: env.sequence,
	}
	if d.hook != nil {
		d.hook(info)
	}
	d.record(ctx, diag.Incident{
		Kind:     kind,
		Sequence: env.sequence,
		Reason:   diag.ReasonUnmatchedKind,
		Detail:   "policy=" + d.unmatched.String(),
	})

	if d.unmatched == UnmatchedPanic {
		panic(info)
	}
}

// recordPanic records a handler panic recovered by Consume.
func (d *Dispatcher[K]) recordPanic(ctx context.Context, perr *PanicError) {
	observability.LogHandlerPanic(d.logger, d.queue, perr.Kind, perr.Sequence, perr.Value, perr.Stack)
	d.record(ctx, diag.Incident{
		Kind:     perr.Kind,
		Sequence: perr.Sequence,
		Reason:   diag.ReasonHandlerPanic,
		Detail:   fmt.Sprint(perr.Value),
	})
}

// record writes inc to the diagnostics store, if any. Failures are logged,
// never returned: diagnostics must not stop dispatch.
func (d *Dispatcher[K]) record(ctx context.Context, inc diag.Incident) {
	if d.diag == nil {
		return
	}
	inc.QueueID = d.queueID
	inc.QueueName = d.queue
	// A cancelled consumer context must not lose the incident.
	if err := d.diag.Record(context.WithoutCancel(ctx), inc); err != nil {
		observability.LogDiagnosticsError(d.logger, d.queue, err)
	}
}
