package diag

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/randalmurphal/photon/pkg/photon/registry"
)

// MemoryStore keeps incidents in process memory, one log per queue.
// Data is lost when the process exits.
type MemoryStore struct {
	logs   *registry.Registry[uint64, *queueLog]
	order  atomic.Uint64
	closed atomic.Bool
}

type queueLog struct {
	mu      sync.Mutex
	entries []memoryEntry
}

type memoryEntry struct {
	order uint64
	inc   Incident
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logs: registry.New[uint64, *queueLog](),
	}
}

// Record implements Store.
func (m *MemoryStore) Record(_ context.Context, inc Incident) error {
	if m.closed.Load() {
		return ErrStoreClosed
	}
	inc, err := prepare(inc)
	if err != nil {
		return err
	}

	log := m.logs.GetOrCreate(inc.QueueID, func() *queueLog { return &queueLog{} })
	log.mu.Lock()
	log.entries = append(log.entries, memoryEntry{order: m.order.Add(1), inc: inc})
	log.mu.Unlock()
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, queueID uint64) ([]Incident, error) {
	if m.closed.Load() {
		return nil, ErrStoreClosed
	}
	log, ok := m.logs.Get(queueID)
	if !ok {
		return []Incident{}, nil
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	out := make([]Incident, len(log.entries))
	for i, e := range log.entries {
		out[i] = e.inc
	}
	return out, nil
}

// ListAll implements Store.
func (m *MemoryStore) ListAll(_ context.Context, limit int) ([]Incident, error) {
	if m.closed.Load() {
		return nil, ErrStoreClosed
	}

	var all []memoryEntry
	m.logs.Range(func(_ uint64, log *queueLog) bool {
		log.mu.Lock()
		all = append(all, log.entries...)
		log.mu.Unlock()
		return true
	})

	slices.SortFunc(all, func(a, b memoryEntry) int {
		// newest first
		switch {
		case a.order > b.order:
			return -1
		case a.order < b.order:
			return 1
		}
		return 0
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	out := make([]Incident, len(all))
	for i, e := range all {
		out[i] = e.inc
	}
	return out, nil
}

// Count implements Store.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	if m.closed.Load() {
		return 0, ErrStoreClosed
	}
	n := 0
	m.logs.Range(func(_ uint64, log *queueLog) bool {
		log.mu.Lock()
		n += len(log.entries)
		log.mu.Unlock()
		return true
	})
	return n, nil
}

// Close implements Store. Stored incidents are discarded.
func (m *MemoryStore) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	m.logs.Clear()
	return nil
}
