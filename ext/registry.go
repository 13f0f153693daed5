package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/conduit/completion"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type registeredEntry struct {
	name string
	hook CompletionRegistered
}

type dispatchedEntry struct {
	name string
	hook CompletionDispatched
}

type canceledEntry struct {
	name string
	hook CompletionCanceled
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events to
// them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	registered []registeredEntry
	dispatched []dispatchedEntry
	canceled   []canceledEntry
	shutdown   []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable hook
// caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(CompletionRegistered); ok {
		r.registered = append(r.registered, registeredEntry{name, h})
	}
	if h, ok := e.(CompletionDispatched); ok {
		r.dispatched = append(r.dispatched, dispatchedEntry{name, h})
	}
	if h, ok := e.(CompletionCanceled); ok {
		r.canceled = append(r.canceled, canceledEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitCompletionRegistered notifies all extensions implementing
// CompletionRegistered.
func (r *Registry) EmitCompletionRegistered(ctx context.Context, label string) {
	for _, e := range r.registered {
		if err := e.hook.OnCompletionRegistered(ctx, label); err != nil {
			r.logHookError("OnCompletionRegistered", e.name, err)
		}
	}
}

// EmitCompletionDispatched notifies all extensions implementing
// CompletionDispatched.
func (r *Registry) EmitCompletionDispatched(ctx context.Context, label string, route completion.Route, wait time.Duration) {
	for _, e := range r.dispatched {
		if err := e.hook.OnCompletionDispatched(ctx, label, route, wait); err != nil {
			r.logHookError("OnCompletionDispatched", e.name, err)
		}
	}
}

// EmitCompletionCanceled notifies all extensions implementing
// CompletionCanceled.
func (r *Registry) EmitCompletionCanceled(ctx context.Context, label string) {
	for _, e := range r.canceled {
		if err := e.hook.OnCompletionCanceled(ctx, label); err != nil {
			r.logHookError("OnCompletionCanceled", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions implementing Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block dispatch.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
