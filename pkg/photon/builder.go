package photon

// CatalogBuilder accumulates entries for a catalog.
// Build runs the same validation as NewCatalog.
//
// CatalogBuilder is NOT thread-safe. Build it from one goroutine, then share
// the resulting Catalog.
//
// Example:
//
//	catalog, err := photon.NewCatalogBuilder[Kind]("greeter").
//	    Add(SayHello).
//	    Add(SayGoodbye).
//	    Build()
type CatalogBuilder[K comparable] struct {
	name    string
	entries []Entry[K]
}

// NewCatalogBuilder creates an empty builder for a catalog called name.
func NewCatalogBuilder[K comparable](name string) *CatalogBuilder[K] {
	return &CatalogBuilder[K]{name: name}
}

// Add appends entries. Returns the builder for method chaining.
// Duplicates are reported by Build, not here.
func (b *CatalogBuilder[K]) Add(entries ...Entry[K]) *CatalogBuilder[K] {
	b.entries = append(b.entries, entries...)
	return b
}

// Len returns the number of entries added so far.
func (b *CatalogBuilder[K]) Len() int {
	return len(b.entries)
}

// Build validates the entries and returns an immutable Catalog.
// The builder may keep being used afterwards; later Adds do not affect
// catalogs already built.
func (b *CatalogBuilder[K]) Build() (*Catalog[K], error) {
	return NewCatalog(b.name, b.entries...)
}
