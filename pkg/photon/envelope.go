package photon

import "time"

// Envelope is the queue's record of one pushed event.
// It is created by Push and consumed by exactly one dispatch; the payload is
// moved out to the handler, after which the envelope no longer references it.
type Envelope[K comparable] struct {
	kind       K
	queueID    uint64
	sequence   uint64
	payload    any
	taken      bool
	enqueuedAt time.Time
}

// Kind returns the event's kind.
func (e *Envelope[K]) Kind() K {
	return e.kind
}

// QueueID returns the id of the queue the event was pushed to.
func (e *Envelope[K]) QueueID() uint64 {
	return e.queueID
}

// Sequence returns the event's position in its queue's push order.
func (e *Envelope[K]) Sequence() uint64 {
	return e.sequence
}

// EnqueuedAt returns the time the event was pushed.
func (e *Envelope[K]) EnqueuedAt() time.Time {
	return e.enqueuedAt
}

// Taken reports whether the payload has been moved out.
func (e *Envelope[K]) Taken() bool {
	return e.taken
}

// take moves the payload out of the envelope.
func (e *Envelope[K]) take() any {
	p := e.payload
	e.payload = nil
	e.taken = true
	return p
}

// Event is the typed view of an envelope handed to a handler.
type Event[K comparable, T any] struct {
	Kind     K
	QueueID  uint64
	Sequence uint64
	Value    T
}
