// Package diag records dispatch incidents: events dropped because their kind
// had no handler, and handlers that panicked.
//
// Incidents carry the envelope's identity (queue, kind, sequence) and never
// its payload.
package diag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store persists incidents.
// Implementations must be safe for concurrent use.
type Store interface {
	// Record stores an incident. Incidents with a zero ID or OccurredAt are
	// filled in before storing.
	Record(ctx context.Context, inc Incident) error

	// List returns the incidents of one queue in recording order.
	// Returns an empty slice (not error) if the queue has none.
	List(ctx context.Context, queueID uint64) ([]Incident, error)

	// ListAll returns incidents across all queues, most recent first.
	// limit <= 0 returns everything.
	ListAll(ctx context.Context, limit int) ([]Incident, error)

	// Count returns the number of stored incidents.
	Count(ctx context.Context) (int, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Reason says why an incident was recorded.
type Reason string

const (
	// ReasonUnmatchedKind marks an event whose kind had no catalog entry.
	ReasonUnmatchedKind Reason = "unmatched_kind"

	// ReasonHandlerPanic marks a handler that panicked.
	ReasonHandlerPanic Reason = "handler_panic"
)

// Valid reports whether r is a known reason.
func (r Reason) Valid() bool {
	return r == ReasonUnmatchedKind || r == ReasonHandlerPanic
}

// Incident describes one dispatch failure.
type Incident struct {
	ID         uuid.UUID
	QueueID    uint64
	QueueName  string
	Kind       string
	Sequence   uint64
	Reason     Reason
	Detail     string
	OccurredAt time.Time
}

// String formats the incident as one line.
func (i Incident) String() string {
	s := fmt.Sprintf("%s %s queue=%s(%d) kind=%s seq=%d",
		i.OccurredAt.Format(time.RFC3339Nano), i.Reason, i.QueueName, i.QueueID, i.Kind, i.Sequence)
	if i.Detail != "" {
		s += " detail=" + i.Detail
	}
	return s
}

// Sentinel errors for store operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("diagnostics store closed")

	// ErrInvalidReason indicates an incident with an unknown Reason.
	ErrInvalidReason = errors.New("invalid incident reason")
)

// prepare validates inc and fills in its identity and timestamp.
func prepare(inc Incident) (Incident, error) {
	if !inc.Reason.Valid() {
		return Incident{}, fmt.Errorf("%w: %q", ErrInvalidReason, inc.Reason)
	}
	if inc.ID == uuid.Nil {
		inc.ID = uuid.New()
	}
	if inc.OccurredAt.IsZero() {
		inc.OccurredAt = time.Now().UTC()
	}
	return inc, nil
}
