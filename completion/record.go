package completion

import "context"

// Route identifies the dispatch path TrySchedule took. The record carries
// no instrumentation of its own; owners use the returned Route for hooks
// and metrics.
type Route uint8

const (
	// RouteNone means nothing was dispatched (empty record).
	RouteNone Route = iota
	// RoutePool is the fast path: the record was submitted to the default
	// worker pool as its own work item.
	RoutePool
	// RouteScheduler is the direct Schedule(callback, state) path.
	RouteScheduler
	// RouteSchedulerContext routes through the scheduler via the
	// context-restoring trampoline.
	RouteSchedulerContext
	// RoutePoster routes through the affinity poster without a context.
	RoutePoster
	// RoutePosterContext routes through the affinity poster via the
	// context-restoring trampoline.
	RoutePosterContext
)

// String returns a short name for the route, used in logs and metrics.
func (r Route) String() string {
	switch r {
	case RouteNone:
		return "none"
	case RoutePool:
		return "pool"
	case RouteScheduler:
		return "scheduler"
	case RouteSchedulerContext:
		return "scheduler+context"
	case RoutePoster:
		return "poster"
	case RoutePosterContext:
		return "poster+context"
	default:
		return "unknown"
	}
}

// Record is a single-slot completion handoff: one pending callback plus the
// ambient context captured when it was registered. A Record is created once
// by its owner (typically embedded in a completion waiter), populated with
// Set when a callback is registered, consumed by TrySchedule or Execute
// when the operation finishes, then cleared and reused. It is never
// allocated per completion.
//
// The record is not thread-safe and does not guard against double dispatch;
// the single owner arranges one TrySchedule per Set and clears the record
// after the dispatched callback has run, or before the next Set.
type Record struct {
	callback Callback
	state    any
	token    Token
	poster   Poster
}

// Set populates the record unconditionally, overwriting any prior state.
// The caller guarantees the record is currently empty. Token and poster are
// independent; either, both, or neither may be nil.
func (r *Record) Set(cb Callback, state any, token Token, poster Poster) {
	r.callback = cb
	r.state = state
	r.token = token
	r.poster = poster
}

// Clear resets the record to the empty state. Idempotent and safe on an
// already-empty record.
func (r *Record) Clear() {
	r.callback = nil
	r.state = nil
	r.token = nil
	r.poster = nil
}

// HasCallback reports whether a callback is registered. Owners use it to
// decide whether dispatch is meaningful at all.
func (r *Record) HasCallback() bool {
	return r.callback != nil
}

// Execute invokes the callback directly with no context handling. The
// caller has already arranged the correct ambient context, or decided it
// does not matter (the raw work-item path). Panics from the callback
// propagate; calling Execute on an empty record is a contract violation.
func (r *Record) Execute() {
	r.callback(context.Background(), r.state)
}

// Run makes the record its own pool work item. It is the pool's invocation
// entry point on the fast path and is equivalent to Execute.
func (r *Record) Run() {
	r.Execute()
}

// TrySchedule dispatches the pending callback, choosing the execution
// substrate from the record's captured state. It is a no-op on an empty
// record.
//
// When s is the default worker-pool scheduler and no context was captured
// (no token, no poster), the record submits itself as a raw work item,
// avoiding the closure allocation Schedule would need. The fast path is
// deliberately guarded on both context layers being absent: the default
// pool is the context-neutral baseline, and a record carrying context falls
// through to the table below so every context combination behaves
// identically under every scheduler.
//
// Otherwise:
//
//	poster  token   action
//	------  -----   ------
//	absent  absent  s.Schedule(callback, state)
//	absent  set     s.Schedule(context trampoline, record)
//	set     absent  poster.Post(plain trampoline, record)
//	set     set     poster.Post(context trampoline, record)
//
// The poster, when present, always wins over the scheduler: it is a hard
// placement requirement, while the scheduler is only a hint.
//
// The returned Route names the path taken. Once TrySchedule hands off, the
// dispatch is irrevocable from the record's perspective.
func (r *Record) TrySchedule(s Scheduler) Route {
	if r.callback == nil {
		return RouteNone
	}

	if r.poster == nil && r.token == nil {
		if ps, ok := s.(PoolScheduler); ok && ps.DefaultPool() {
			if err := ps.SubmitItem(r); err == nil {
				return RoutePool
			}
			// Submission refused (pool stopped); fall back to Schedule so
			// the scheduler applies its own failure policy.
		}
		s.Schedule(r.callback, r.state)
		return RouteScheduler
	}

	if r.poster == nil {
		s.Schedule(runWithToken, r)
		return RouteSchedulerContext
	}

	if r.token == nil {
		r.poster.Post(runPlain, r)
		return RoutePoster
	}

	r.poster.Post(runWithToken, r)
	return RoutePosterContext
}

// runPlain is the without-context trampoline. It receives the record as
// state and invokes the real callback directly. Package-level so it is
// selected per dispatch, never allocated.
func runPlain(_ context.Context, state any) {
	r := state.(*Record)
	r.callback(context.Background(), r.state)
}

// runWithToken is the context-restoring trampoline. The scheduler or poster
// only carries a callback+state pair, so the record rides along as state
// and the captured context is restored here, immediately before the real
// callback runs.
func runWithToken(_ context.Context, state any) {
	r := state.(*Record)
	if r.token == nil {
		panic("completion: context trampoline dispatched without a captured token")
	}
	r.callback(r.token.Context(), r.state)
}
