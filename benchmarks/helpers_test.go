package benchmarks

import (
	"github.com/randalmurphal/photon/pkg/photon"
	"github.com/randalmurphal/photon/pkg/photon/owned"
)

// Kind tags benchmark events.
type Kind int

const (
	KindTick Kind = iota
	KindBlob
	KindFrame
)

// Blob is a payload large enough to show copying costs.
type Blob struct {
	ID   int
	Data [256]byte
}

var (
	Tick    = photon.Declare[int](KindTick)
	BlobKey = photon.Declare[Blob](KindBlob)
	Frame   = photon.Declare[owned.OwnedSpan[byte]](KindFrame)

	Bench = photon.MustCatalog[Kind]("bench", Tick, BlobKey, Frame)
)

// newQueue creates a queue with logging disabled.
func newQueue(opts ...photon.QueueOption) *photon.Queue[Kind] {
	return photon.NewQueue(Bench, "bench", append([]photon.QueueOption{photon.WithLogger(nil)}, opts...)...)
}

// countingVisitor counts every dispatched event into n.
func countingVisitor(n *int) *photon.Visitor[Kind] {
	v := photon.NewVisitor(Bench)
	photon.On(v, Tick, func(photon.Event[Kind, int]) { *n++ })
	photon.On(v, BlobKey, func(photon.Event[Kind, Blob]) { *n++ })
	photon.On(v, Frame, func(e photon.Event[Kind, owned.OwnedSpan[byte]]) {
		*n++
		_ = e.Value.Close()
	})
	return v
}
