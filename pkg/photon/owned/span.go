package owned

// OwnedSpan exclusively owns a contiguous region of T, typically a buffer
// borrowed from a pool or allocated outside the Go heap. A nil region is
// null.
type OwnedSpan[T any] struct {
	region  []T
	cleanup func([]T) error
}

// NewSpan wraps s. cleanup runs on Close unless ownership was released or
// moved; it may be nil.
func NewSpan[T any](s []T, cleanup func([]T) error) OwnedSpan[T] {
	return OwnedSpan[T]{region: s, cleanup: cleanup}
}

// Len returns the number of elements in the region.
func (o *OwnedSpan[T]) Len() int {
	return len(o.region)
}

// Slice returns the region without giving up ownership. The caller must not
// retain it past Close.
func (o *OwnedSpan[T]) Slice() []T {
	return o.region
}

// Valid reports whether o owns a region.
func (o *OwnedSpan[T]) Valid() bool {
	return o.region != nil
}

// Release returns the region and nulls o. Cleanup will not run.
func (o *OwnedSpan[T]) Release() []T {
	s := o.region
	o.region, o.cleanup = nil, nil
	return s
}

// Move transfers ownership to the returned wrapper and nulls o.
func (o *OwnedSpan[T]) Move() OwnedSpan[T] {
	moved := *o
	o.region, o.cleanup = nil, nil
	return moved
}

// Close runs the cleanup if o still owns a region, then nulls o.
func (o *OwnedSpan[T]) Close() error {
	if !o.Valid() {
		return nil
	}
	s, cleanup := o.region, o.cleanup
	o.region, o.cleanup = nil, nil
	if cleanup == nil {
		return nil
	}
	return cleanup(s)
}
