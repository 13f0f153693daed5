package completion

import "context"

// Callback is a user completion callback. The context argument carries the
// ambient logical context the callback runs under: the captured context when
// a Token was set on the record, context.Background otherwise. State is the
// opaque payload given to Set, passed through verbatim.
type Callback func(ctx context.Context, state any)

// Scheduler runs a callback asynchronously on an unspecified goroutine.
// It is a throughput/placement hint: when a record carries a Poster, the
// Poster wins and the Scheduler is bypassed entirely.
type Scheduler interface {
	Schedule(cb Callback, state any)
}

// Item is a self-describing unit of work a pool can run directly. It
// mirrors the worker pool's work-item contract so a Record can be submitted
// to the pool without an adapter allocation.
type Item interface {
	Run()
}

// PoolScheduler is implemented by schedulers backed by the shared worker
// pool. TrySchedule uses it to detect the default pool and hand the record
// itself over as a work item, skipping the closure the generic Schedule
// path would need.
type PoolScheduler interface {
	Scheduler

	// DefaultPool reports whether this scheduler is the process-default
	// worker pool, the context-neutral baseline substrate.
	DefaultPool() bool

	// SubmitItem enqueues a work item on the pool.
	SubmitItem(item Item) error
}

// Poster runs a callback on a designated execution target (for example a
// single-goroutine message loop). Same invocation contract as Scheduler,
// plus the placement guarantee.
type Poster interface {
	Post(cb Callback, state any)
}

// Token is captured ambient logical context. Context returns the restored
// ambient context the callback must observe while it runs. Capture happens
// outside this package (see the scope package); restoration is explicit
// context passing, never hidden global state.
type Token interface {
	Context() context.Context
}
