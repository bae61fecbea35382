package photon

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog construction.
var (
	// ErrDuplicateKind indicates two catalog entries share a kind.
	ErrDuplicateKind = errors.New("duplicate event kind")

	// ErrNilEntry indicates a nil entry was passed to a catalog.
	ErrNilEntry = errors.New("nil catalog entry")
)

// Sentinel errors for visitor binding and validation.
var (
	// ErrUnknownKind indicates a handler was bound for a kind the catalog does not declare.
	ErrUnknownKind = errors.New("kind not in catalog")

	// ErrPayloadTypeMismatch indicates a key's payload type differs from the
	// type the catalog declares for that kind.
	ErrPayloadTypeMismatch = errors.New("payload type mismatch")

	// ErrDuplicateHandler indicates two handlers were bound for one kind.
	ErrDuplicateHandler = errors.New("handler already bound")

	// ErrNilHandler indicates a nil handler function.
	ErrNilHandler = errors.New("nil handler")

	// ErrMissingHandler indicates a catalog entry with no bound handler.
	ErrMissingHandler = errors.New("missing handler")

	// ErrInvalidVisitor indicates a visitor that failed validation or belongs
	// to another catalog was handed to a queue.
	ErrInvalidVisitor = errors.New("invalid visitor")

	// ErrEnvelopeTaken indicates an envelope handed to Dispatch that is nil or
	// was already dispatched.
	ErrEnvelopeTaken = errors.New("envelope already dispatched")
)

// ErrUnmatchedKind indicates a dequeued event whose kind has no catalog entry.
var ErrUnmatchedKind = errors.New("unmatched event kind")

// UnmatchedKindError describes an event that was dropped because its kind has
// no catalog entry. It is passed to unmatched hooks, and the UnmatchedPanic
// policy panics with it.
type UnmatchedKindError struct {
	// Queue is the name of the queue the event was pushed to.
	Queue string
	// QueueID is the id of that queue.
	QueueID uint64
	// Kind is the event's kind value.
	Kind any
	// Sequence is the event's sequence number.
	Sequence uint64
}

// Error implements the error interface.
func (e *UnmatchedKindError) Error() string {
	return fmt.Sprintf("queue %s: event %d: %v: %v", e.Queue, e.Sequence, ErrUnmatchedKind, e.Kind)
}

// Unwrap returns ErrUnmatchedKind for errors.Is support.
func (e *UnmatchedKindError) Unwrap() error {
	return ErrUnmatchedKind
}

// PanicError captures a handler panic recovered by Consume.
// It includes the stack trace for debugging.
type PanicError struct {
	// Queue is the name of the queue being consumed.
	Queue string
	// Kind is the name of the event kind whose handler panicked.
	Kind string
	// Sequence is the sequence number of the event being handled.
	Sequence uint64
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("queue %s: handler for %s (event %d) panicked: %v", e.Queue, e.Kind, e.Sequence, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
