package owned

// Owned exclusively owns one handle of type T. The zero value is a null
// wrapper.
type Owned[T comparable] struct {
	handle  T
	cleanup func(T) error
}

// New wraps h. cleanup runs on Close unless ownership was released or moved;
// it may be nil.
func New[T comparable](h T, cleanup func(T) error) Owned[T] {
	return Owned[T]{handle: h, cleanup: cleanup}
}

// Get returns the handle without giving up ownership.
func (o *Owned[T]) Get() T {
	return o.handle
}

// Valid reports whether o owns a non-null handle.
func (o *Owned[T]) Valid() bool {
	var zero T
	return o.handle != zero
}

// Release returns the handle and nulls o. Cleanup will not run.
func (o *Owned[T]) Release() T {
	h := o.handle
	o.reset()
	return h
}

// Move transfers ownership to the returned wrapper and nulls o.
func (o *Owned[T]) Move() Owned[T] {
	moved := *o
	o.reset()
	return moved
}

// Close runs the cleanup if o still owns a handle, then nulls o.
// Closing a null wrapper returns nil.
func (o *Owned[T]) Close() error {
	if !o.Valid() {
		return nil
	}
	h, cleanup := o.handle, o.cleanup
	o.reset()
	if cleanup == nil {
		return nil
	}
	return cleanup(h)
}

func (o *Owned[T]) reset() {
	var zero T
	o.handle = zero
	o.cleanup = nil
}
