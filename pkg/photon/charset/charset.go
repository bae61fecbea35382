package charset

import (
	"github.com/emirpasic/gods/v2/sets/linkedhashset"
)

// Charset is a set of codepoints that remembers insertion order.
// It is not safe for concurrent use.
type Charset struct {
	set *linkedhashset.Set[rune]
}

// New returns an empty charset.
func New() *Charset {
	return &Charset{set: linkedhashset.New[rune]()}
}

// From returns a charset holding runes, in first-seen order.
func From(runes ...rune) *Charset {
	return &Charset{set: linkedhashset.New(runes...)}
}

// FromString returns a charset holding the codepoints of s.
func FromString(s string) *Charset {
	return From([]rune(s)...)
}

// Has reports whether r is in the set.
func (c *Charset) Has(r rune) bool {
	return c.set.Contains(r)
}

// Add inserts runes not already present.
func (c *Charset) Add(runes ...rune) {
	c.set.Add(runes...)
}

// Characters returns the codepoints in insertion order.
func (c *Charset) Characters() []rune {
	return c.set.Values()
}

// Len returns the number of codepoints.
func (c *Charset) Len() int {
	return c.set.Size()
}

// Clone returns an independent copy.
func (c *Charset) Clone() *Charset {
	return From(c.Characters()...)
}

// String returns the codepoints as a string, in insertion order.
func (c *Charset) String() string {
	return string(c.Characters())
}
