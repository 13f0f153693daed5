package middleware

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/conduit/completion"
)

// Recover returns middleware that recovers panics from the callback chain.
// The completion record itself never swallows a panic; Recover is the
// opt-in containment layer for owners that must not lose a worker
// goroutine or message loop to a faulty callback. Panics are logged with a
// stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(next completion.Callback) completion.Callback {
		return func(ctx context.Context, state any) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("completion callback panicked",
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()
			next(ctx, state)
		}
	}
}
