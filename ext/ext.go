package ext

import (
	"context"
	"time"

	"github.com/xraph/conduit/completion"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// CompletionRegistered is called after a callback is registered on a
// completion waiter.
type CompletionRegistered interface {
	OnCompletionRegistered(ctx context.Context, label string) error
}

// CompletionDispatched is called after a completion fires and its callback
// is handed to an execution substrate. Route names the path the record
// took; wait is the time the registration spent pending.
type CompletionDispatched interface {
	OnCompletionDispatched(ctx context.Context, label string, route completion.Route, wait time.Duration) error
}

// CompletionCanceled is called when a registered callback is withdrawn
// before its completion fired.
type CompletionCanceled interface {
	OnCompletionCanceled(ctx context.Context, label string) error
}

// Shutdown is called when the dispatcher shuts down.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
