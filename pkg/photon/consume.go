package photon

import (
	"context"
	"runtime/debug"

	"github.com/randalmurphal/photon/pkg/photon/observability"
)

// Consume dispatches events from q to v until done reports true (checked
// after each dispatch), ctx ends, or a handler panics.
//
// A handler panic ends the loop: it is recovered, logged, recorded in the
// queue's diagnostics store, and returned as *PanicError. Under the
// UnmatchedPanic policy an unmatched kind ends the loop with
// *UnmatchedKindError. Otherwise the returned error is ctx.Err() or nil.
//
// A nil done never stops the loop on its own; stop it through ctx or with a
// handler-side flag checked by done.
func Consume[K comparable](ctx context.Context, q *Queue[K], v *Visitor[K], done func() bool) (err error) {
	dispatched := 0
	defer func() {
		observability.LogConsumerStopped(q.logger, q.name, dispatched, err)
	}()

	for {
		if err := q.consumeOne(ctx, v); err != nil {
			return err
		}
		dispatched++
		if done != nil && done() {
			return nil
		}
	}
}

// consumeOne waits for and dispatches one event, converting panics to errors.
func (q *Queue[K]) consumeOne(ctx context.Context, v *Visitor[K]) (err error) {
	q.mustAccept(v)
	env, err := q.wait(ctx)
	if err != nil {
		return err
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if unmatched, ok := r.(*UnmatchedKindError); ok {
			// Already logged and recorded by the dispatcher.
			err = unmatched
			return
		}
		perr := &PanicError{
			Queue:    q.name,
			Kind:     q.catalog.kindName(env.kind),
			Sequence: env.sequence,
			Value:    r,
			Stack:    string(debug.Stack()),
		}
		q.dispatcher.recordPanic(ctx, perr)
		err = perr
	}()

	q.dispatcher.dispatch(ctx, env, v)
	return nil
}
