package photon

import "sync/atomic"

// IDAllocator hands out queue ids: 0, 1, 2, ... in allocation order.
// Safe for concurrent use.
type IDAllocator struct {
	next atomic.Uint64
}

// NewIDAllocator returns an allocator whose first id is 0.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns the next unused id.
func (a *IDAllocator) Next() uint64 {
	return a.next.Add(1) - 1
}

// DefaultIDs is the process-wide allocator NewQueue uses unless
// WithIDAllocator is given.
var DefaultIDs = NewIDAllocator()
