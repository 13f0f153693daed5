// Package sched provides the scheduler implementations completions are
// dispatched through: Inline (synchronous), Goroutine (one goroutine per
// callback), Pool (the shared worker pool, including the default-pool fast
// path), and Throttle (token-bucket rate limiting over any scheduler).
package sched
