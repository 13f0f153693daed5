// Package completion provides the deferred completion dispatch record used
// by asynchronous I/O engines to decouple "an operation finished" from
// "where the continuation runs".
//
// A Record captures a callback, its state, and two independent optional
// context layers: a Token (captured ambient logical context) and a Poster
// (a synchronization affinity such as a message loop the callback must run
// on). When the operation completes, TrySchedule routes the callback to the
// right execution substrate — the shared worker pool, a pluggable
// Scheduler, or the affinity Poster — restoring the captured context where
// one was taken.
//
// The record is a single-slot handoff, reused across completions by exactly
// one owner. It is not thread-safe and never allocates on the common path
// (no captured context, default pool scheduler): the record submits itself
// as the pool's work item instead of wrapping the callback in a closure.
package completion
