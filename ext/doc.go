// Package ext defines the extension system for conduit. Extensions are
// notified of completion lifecycle events (registered, dispatched,
// canceled, shutdown) and can react to them — logging, metrics, tracing.
//
// Each lifecycle hook is a separate interface so extensions opt in only to
// the events they care about. Hooks run synchronously on the emitting
// goroutine and must be fast; hook errors are logged and never propagated.
package ext
