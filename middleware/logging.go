package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/conduit/completion"
)

// Logging returns middleware that logs the callback run and its duration.
func Logging(logger *slog.Logger, label string) Middleware {
	return func(next completion.Callback) completion.Callback {
		return func(ctx context.Context, state any) {
			logger.Debug("completion callback started",
				slog.String("completion", label),
			)

			start := time.Now()
			next(ctx, state)

			logger.Info("completion callback finished",
				slog.String("completion", label),
				slog.Duration("elapsed", time.Since(start)),
			)
		}
	}
}
