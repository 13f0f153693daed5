// Package awaiter provides the completion waiter: the single owner the
// completion record is designed around. A Waiter pairs one pending
// asynchronous operation with at most one registered callback, fires the
// dispatch when the operation completes, and recycles the record for the
// next operation. The record stays a bare single-slot handoff; the waiter
// supplies the ownership discipline, lifecycle hooks, and middleware.
package awaiter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/conduit/completion"
	"github.com/xraph/conduit/ext"
	"github.com/xraph/conduit/middleware"
	"github.com/xraph/conduit/scope"
)

var (
	// ErrAlreadyRegistered is returned by OnComplete when a callback is
	// already pending.
	ErrAlreadyRegistered = errors.New("awaiter: completion already registered")

	// ErrNilCallback is returned by OnComplete for a nil callback.
	ErrNilCallback = errors.New("awaiter: nil callback")

	// ErrDispatchInFlight is returned by OnComplete while a previously
	// dispatched callback has been handed to an asynchronous substrate but
	// has not run yet. The record cannot be reused until it fires.
	ErrDispatchInFlight = errors.New("awaiter: prior dispatch still in flight")
)

// Waiter owns one completion record across its set/dispatch/clear cycles.
// Methods are safe for concurrent use; the embedded record itself is only
// touched under the waiter's lock, preserving its single-owner contract.
type Waiter struct {
	label  string
	sched  completion.Scheduler
	exts   *ext.Registry
	logger *slog.Logger
	mw     middleware.Middleware

	mu           sync.Mutex
	rec          completion.Record
	registered   bool
	completed    bool
	dirty        bool // record holds a dispatched registration not yet cleared
	registeredAt time.Time

	// inFlight is set when a dispatch has been handed off and cleared by
	// the callback wrapper once it has run. Trampoline and pool routes read
	// the record at fire time, so the record must not be reused before
	// then. Atomic rather than lock-guarded: synchronous schedulers run
	// the callback inside dispatchLocked, under the waiter's lock.
	inFlight atomic.Bool
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithExtensions wires lifecycle hooks.
func WithExtensions(r *ext.Registry) Option {
	return func(w *Waiter) { w.exts = r }
}

// WithLogger sets the waiter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Waiter) { w.logger = logger }
}

// WithMiddleware wraps every registered callback with the given middleware
// at registration time. The first middleware is the outermost wrapper.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(w *Waiter) { w.mw = middleware.Chain(mws...) }
}

// New creates a Waiter dispatching through the given scheduler.
func New(label string, s completion.Scheduler, opts ...Option) *Waiter {
	w := &Waiter{
		label:  label,
		sched:  s,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Label returns the waiter's identifier.
func (w *Waiter) Label() string { return w.label }

// registration collects the per-registration context layers.
type registration struct {
	token  completion.Token
	poster completion.Poster
}

// RegisterOption configures a single OnComplete call.
type RegisterOption func(*registration)

// WithToken attaches a captured logical-context token. The callback will
// observe the token's restored context as ambient while it runs.
func WithToken(t completion.Token) RegisterOption {
	return func(r *registration) { r.token = t }
}

// WithAffinity requires the callback to run via the given poster,
// regardless of which scheduler the waiter dispatches through.
func WithAffinity(p completion.Poster) RegisterOption {
	return func(r *registration) { r.poster = p }
}

// WithCapturedScope captures the forge scope from ctx, if any, as the
// registration's logical context. When ctx carries no scope, no token is
// set and the registration keeps the allocation-free dispatch path.
func WithCapturedScope(ctx context.Context) RegisterOption {
	return func(r *registration) {
		if tok, ok := scope.Capture(ctx); ok {
			r.token = tok
		}
	}
}

// OnComplete registers the callback to run when the operation completes.
// If the operation already completed, the callback dispatches immediately.
// Returns ErrAlreadyRegistered if a callback is pending, and
// ErrDispatchInFlight while an earlier dispatch has not run yet.
func (w *Waiter) OnComplete(cb completion.Callback, state any, opts ...RegisterOption) error {
	if cb == nil {
		return ErrNilCallback
	}

	var reg registration
	for _, opt := range opts {
		opt(&reg)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.registered {
		return ErrAlreadyRegistered
	}
	if w.inFlight.Load() {
		return ErrDispatchInFlight
	}

	if w.mw != nil {
		cb = w.mw(cb)
	}
	run := cb
	cb = func(ctx context.Context, state any) {
		defer w.inFlight.Store(false)
		run(ctx, state)
	}

	// The record is cleared before the next Set, per its ownership
	// contract: the inFlight gate above guarantees any previously
	// dispatched callback has run.
	if w.dirty {
		w.rec.Clear()
		w.dirty = false
	}
	w.rec.Set(cb, state, reg.token, reg.poster)

	if w.completed {
		w.dispatchLocked(0)
		return nil
	}

	w.registered = true
	w.registeredAt = time.Now()
	if w.exts != nil {
		w.exts.EmitCompletionRegistered(context.Background(), w.label)
	}
	return nil
}

// Complete marks the operation finished and dispatches the registered
// callback, if any. A callback registered after Complete dispatches
// immediately. Safe to call more than once; only the first call after a
// registration dispatches.
func (w *Waiter) Complete() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.completed = true
	if !w.registered {
		return
	}
	w.registered = false
	w.dispatchLocked(time.Since(w.registeredAt))
}

// dispatchLocked fires the record and records the outcome. Caller holds
// the lock.
func (w *Waiter) dispatchLocked(wait time.Duration) {
	w.inFlight.Store(true)
	route := w.rec.TrySchedule(w.sched)
	w.dirty = true

	w.logger.Debug("completion dispatched",
		slog.String("completion", w.label),
		slog.String("route", route.String()),
	)
	if w.exts != nil {
		w.exts.EmitCompletionDispatched(context.Background(), w.label, route, wait)
	}
}

// Cancel withdraws a pending registration before the completion fires.
// Reports whether a registration was actually withdrawn. Cancellation of
// an already-dispatched completion is not supported; once TrySchedule has
// handed off, the dispatch is irrevocable.
func (w *Waiter) Cancel() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.registered {
		return false
	}
	w.registered = false
	w.rec.Clear()

	if w.exts != nil {
		w.exts.EmitCompletionCanceled(context.Background(), w.label)
	}
	return true
}

// Reset recycles the waiter for the next operation. The caller guarantees
// any dispatched callback has finished running; the record is cleared and
// the completed flag dropped.
func (w *Waiter) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rec.Clear()
	w.registered = false
	w.completed = false
	w.dirty = false
	w.inFlight.Store(false)
}

// Completed reports whether the operation has completed.
func (w *Waiter) Completed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.completed
}

// Registered reports whether a callback is pending.
func (w *Waiter) Registered() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.registered
}
