package photon

import (
	"errors"
	"fmt"
	"reflect"
)

// Entry is one catalog row: a kind and the payload type it carries.
// Key is the only implementation.
type Entry[K comparable] interface {
	// Kind returns the entry's kind.
	Kind() K
	// PayloadType returns the type of payload events of this kind carry.
	PayloadType() reflect.Type
}

// Key binds a kind to payload type T. Push and On accept a Key, so the
// compiler checks every payload and handler against it.
//
// Keys are created with Declare and are usually package-level variables:
//
//	var (
//	    SayHello   = photon.Declare[string](KindHello)
//	    SayGoodbye = photon.Declare[uint32](KindGoodbye)
//	)
type Key[K comparable, T any] struct {
	kind K
	typ  reflect.Type
}

// Declare returns the key for kind carrying payloads of type T.
func Declare[T any, K comparable](kind K) Key[K, T] {
	return Key[K, T]{kind: kind, typ: reflect.TypeFor[T]()}
}

// Kind implements Entry.
func (k Key[K, T]) Kind() K {
	return k.kind
}

// PayloadType implements Entry.
func (k Key[K, T]) PayloadType() reflect.Type {
	return k.typ
}

// String returns the kind followed by the payload type, e.g. "SayHello(string)".
func (k Key[K, T]) String() string {
	return fmt.Sprintf("%v(%v)", k.kind, k.typ)
}

// Catalog is the closed, immutable set of event kinds a queue carries.
// Each kind appears at most once. A Catalog is safe for concurrent use and is
// shared read-only by every queue and visitor built on it.
type Catalog[K comparable] struct {
	name    string
	entries []Entry[K]
	names   []string
	index   map[K]int
}

// NewCatalog validates entries and builds a catalog.
// Returns an error if any entry is nil or any kind is declared twice.
// Every problem is reported; multiple errors are joined together.
func NewCatalog[K comparable](name string, entries ...Entry[K]) (*Catalog[K], error) {
	var errs []error
	index := make(map[K]int, len(entries))

	for i, e := range entries {
		if e == nil {
			errs = append(errs, fmt.Errorf("%w at position %d", ErrNilEntry, i))
			continue
		}
		if first, exists := index[e.Kind()]; exists {
			errs = append(errs, fmt.Errorf("%w: %v at positions %d and %d", ErrDuplicateKind, e.Kind(), first, i))
			continue
		}
		index[e.Kind()] = i
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog %s: %w", name, errors.Join(errs...))
	}

	c := &Catalog[K]{
		name:    name,
		entries: make([]Entry[K], len(entries)),
		names:   make([]string, len(entries)),
		index:   index,
	}
	copy(c.entries, entries)
	for i, e := range entries {
		c.names[i] = fmt.Sprint(e.Kind())
	}
	return c, nil
}

// MustCatalog is like NewCatalog but panics if the catalog is invalid.
// Intended for package-level catalog variables.
func MustCatalog[K comparable](name string, entries ...Entry[K]) *Catalog[K] {
	c, err := NewCatalog(name, entries...)
	if err != nil {
		panic(fmt.Errorf("photon: %w", err))
	}
	return c
}

// Name returns the catalog's name.
func (c *Catalog[K]) Name() string {
	return c.name
}

// Len returns the number of entries.
func (c *Catalog[K]) Len() int {
	return len(c.entries)
}

// Entries returns the entries in declaration order.
// The returned slice is a copy.
func (c *Catalog[K]) Entries() []Entry[K] {
	out := make([]Entry[K], len(c.entries))
	copy(out, c.entries)
	return out
}

// Kinds returns the declared kinds in declaration order.
func (c *Catalog[K]) Kinds() []K {
	out := make([]K, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Kind()
	}
	return out
}

// Has reports whether kind is declared.
func (c *Catalog[K]) Has(kind K) bool {
	_, ok := c.index[kind]
	return ok
}

// PayloadType returns the payload type declared for kind.
func (c *Catalog[K]) PayloadType(kind K) (reflect.Type, bool) {
	pos, ok := c.index[kind]
	if !ok {
		return nil, false
	}
	return c.entries[pos].PayloadType(), true
}

// position returns kind's declaration index.
func (c *Catalog[K]) position(kind K) (int, bool) {
	pos, ok := c.index[kind]
	return pos, ok
}

// kindName formats kind for logs, metrics, and errors.
func (c *Catalog[K]) kindName(kind K) string {
	if pos, ok := c.index[kind]; ok {
		return c.names[pos]
	}
	return fmt.Sprint(kind)
}
