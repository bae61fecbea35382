/*
Package photon provides a typed, concurrent event queue.

# Overview

Producers push strongly typed payloads tagged with a kind from a closed set.
A consumer blocks until an event arrives and has it routed to the handler
bound for its kind. The compiler checks every payload and every handler
against the kind's declared payload type:
  - A Catalog declares the kinds and their payload types
  - A Queue holds pushed events in FIFO order
  - A Visitor binds one handler per catalog entry

# Basic Usage

Declare kinds and keys, build a catalog, and consume:

	type Kind int

	const (
	    KindHello Kind = iota
	    KindGoodbye
	)

	var (
	    SayHello   = photon.Declare[string](KindHello)
	    SayGoodbye = photon.Declare[uint32](KindGoodbye)
	    Greeter    = photon.MustCatalog[Kind]("greeter", SayHello, SayGoodbye)
	)

	func main() {
	    q := photon.NewQueue(Greeter, "main")

	    running := true
	    v := photon.NewVisitor(Greeter)
	    photon.On(v, SayHello, func(e photon.Event[Kind, string]) {
	        fmt.Printf("Hello %s!\n", e.Value)
	    })
	    photon.On(v, SayGoodbye, func(e photon.Event[Kind, uint32]) {
	        fmt.Printf("Goodbye with code %d\n", e.Value)
	        running = false
	    })

	    go func() {
	        photon.Push(q, SayHello, "Albert")
	        photon.Push(q, SayGoodbye, 12)
	    }()

	    for running {
	        q.WaitAndDispatch(v)
	    }
	}

Pushing an int with SayHello, or binding a func(Event[Kind, int]) to it, does
not compile.

# Ordering

Every queue has an id from its IDAllocator (0, 1, 2, ... process-wide by
default). Every event has a sequence number: 0 for the first push to a
queue, then 1, 2, ... in the order pushes took the queue lock. Events leave
the queue in sequence order. With several consumers each event goes to
exactly one of them.

# Unmatched Kinds

A kind the catalog does not declare can still be pushed (for example with a
key declared outside the catalog). At dispatch no handler runs; the event is
logged at Warn, counted in photon.dispatch.unmatched, passed to the
WithUnmatchedHook callback, and recorded in the WithDiagnostics store. The
UnmatchedPanic policy additionally panics with *UnmatchedKindError.

# Consumer Loops

Consume runs WaitAndDispatchContext in a loop and turns handler panics into
*PanicError:

	err := photon.Consume(ctx, q, v, func() bool { return !running })

# Observability

Queues log through slog (WithLogger) and optionally report OpenTelemetry
metrics (WithMetrics) and dispatch spans (WithTracing).
*/
package photon
