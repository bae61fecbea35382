package photon

import (
	"errors"
	"fmt"
)

// Visitor holds one handler per catalog entry.
//
// Build a visitor with NewVisitor and On, then hand it to WaitAndDispatch.
// Binding mistakes are collected rather than panicking; Validate reports them
// together with every entry left unbound:
//
//	v := photon.NewVisitor(catalog)
//	photon.On(v, SayHello, func(e photon.Event[Kind, string]) {
//	    fmt.Printf("Hello %s!\n", e.Value)
//	})
//	photon.On(v, SayGoodbye, func(e photon.Event[Kind, uint32]) {
//	    fmt.Printf("Goodbye with code %d\n", e.Value)
//	})
//	if err := v.Validate(); err != nil {
//	    return err
//	}
//
// Binding is NOT thread-safe. Once fully bound, a visitor is only read, so
// competing consumers may share it.
type Visitor[K comparable] struct {
	catalog *Catalog[K]
	ops     []func(*Envelope[K])
	errs    []error
}

// NewVisitor creates a visitor with no handlers for catalog.
// Panics if catalog is nil.
func NewVisitor[K comparable](catalog *Catalog[K]) *Visitor[K] {
	if catalog == nil {
		panic("photon: visitor catalog cannot be nil")
	}
	return &Visitor[K]{
		catalog: catalog,
		ops:     make([]func(*Envelope[K]), catalog.Len()),
	}
}

// On binds fn as the handler for key's kind. Returns v for chaining.
//
// Errors are recorded on v and reported by Validate:
//   - ErrUnknownKind if the catalog does not declare key's kind
//   - ErrPayloadTypeMismatch if the catalog declares a different payload type
//   - ErrDuplicateHandler if the kind already has a handler
//   - ErrNilHandler if fn is nil
func On[K comparable, T any](v *Visitor[K], key Key[K, T], fn func(Event[K, T])) *Visitor[K] {
	name := v.catalog.kindName(key.kind)

	if fn == nil {
		v.errs = append(v.errs, fmt.Errorf("%w for %s", ErrNilHandler, name))
		return v
	}

	pos, ok := v.catalog.position(key.kind)
	if !ok {
		v.errs = append(v.errs, fmt.Errorf("%w: %s", ErrUnknownKind, name))
		return v
	}

	if want := v.catalog.entries[pos].PayloadType(); want != key.typ {
		v.errs = append(v.errs, fmt.Errorf("%w: %s carries %v, handler takes %v",
			ErrPayloadTypeMismatch, name, want, key.typ))
		return v
	}

	if v.ops[pos] != nil {
		v.errs = append(v.errs, fmt.Errorf("%w: %s", ErrDuplicateHandler, name))
		return v
	}

	v.ops[pos] = func(env *Envelope[K]) {
		// A nil interface payload becomes T's zero value.
		value, _ := env.take().(T)
		fn(Event[K, T]{
			Kind:     env.kind,
			QueueID:  env.queueID,
			Sequence: env.sequence,
			Value:    value,
		})
	}
	return v
}

// Validate reports binding errors and every catalog entry without a handler.
// Multiple errors are joined together. Validate does not modify v.
func (v *Visitor[K]) Validate() error {
	errs := make([]error, 0, len(v.errs))
	errs = append(errs, v.errs...)
	for pos, op := range v.ops {
		if op == nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingHandler, v.catalog.names[pos]))
		}
	}
	return errors.Join(errs...)
}

// Catalog returns the catalog the visitor was built for.
func (v *Visitor[K]) Catalog() *Catalog[K] {
	return v.catalog
}

// Bound reports whether kind has a handler.
func (v *Visitor[K]) Bound(kind K) bool {
	pos, ok := v.catalog.position(kind)
	return ok && v.ops[pos] != nil
}
