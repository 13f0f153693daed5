// Package middleware provides composable wrappers for completion
// callbacks. Middleware is applied by the owning waiter at registration
// time — never inside the completion record, whose dispatch path stays
// allocation-free — and can recover panics, log, trace, and meter the
// callback run.
package middleware

import (
	"github.com/xraph/conduit/completion"
)

// Middleware wraps a completion callback with cross-cutting logic. The
// returned callback replaces next; it must invoke next to run the real
// callback.
type Middleware func(next completion.Callback) completion.Callback

// Chain composes multiple middleware into one. Middleware are applied
// right-to-left: the first middleware in the list is the outermost
// wrapper.
//
// Example: Chain(logging, recover, metrics) executes as
//
//	logging → recover → metrics → callback
func Chain(mws ...Middleware) Middleware {
	return func(next completion.Callback) completion.Callback {
		cb := next
		for i := len(mws) - 1; i >= 0; i-- {
			cb = mws[i](cb)
		}
		return cb
	}
}
