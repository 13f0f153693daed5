// Package conduit provides completion dispatch for asynchronous I/O
// engines: a reusable completion record that captures "what to run, with
// what ambient context, when an operation finishes" and routes the
// callback to the right execution substrate — the shared worker pool, a
// pluggable scheduler, or a captured synchronization affinity — while
// restoring any logical context captured at registration time.
//
// Conduit is a library, not a service. The Dispatcher wires the default
// worker pool, named affinity loops, and the extension registry together:
//
//	d, err := conduit.New(
//	    conduit.WithPoolSize(20),
//	    conduit.WithExtension(observability.NewMetricsExtension()),
//	)
//	if err != nil { ... }
//	_ = d.Start(ctx)
//
//	w := d.NewWaiter("read")
//	_ = w.OnComplete(onRead, buf, awaiter.WithCapturedScope(ctx))
//	// ... later, when the read finishes:
//	w.Complete()
//
// # Architecture
//
// The completion package holds the core record and its dispatch decision
// logic; sched, worker, and affinity provide the execution substrates;
// scope captures and restores ambient logical context; awaiter owns the
// record's set/dispatch/clear lifecycle; ext and observability hook the
// lifecycle for metrics and other cross-cutting concerns.
package conduit
