package conduit

import (
	"log/slog"
	"time"

	"github.com/xraph/conduit/ext"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithLogger sets the dispatcher's logger, shared with the pool, loops,
// and extension registry it creates.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) error {
		d.logger = logger
		return nil
	}
}

// WithPoolSize sets the number of worker goroutines in the default pool.
func WithPoolSize(n int) Option {
	return func(d *Dispatcher) error {
		if n <= 0 {
			return ErrInvalidPoolSize
		}
		d.config.PoolSize = n
		return nil
	}
}

// WithQueueDepth sets the default pool's work queue depth.
func WithQueueDepth(n int) Option {
	return func(d *Dispatcher) error {
		if n <= 0 {
			return ErrInvalidQueueDepth
		}
		d.config.QueueDepth = n
		return nil
	}
}

// WithLoopBuffer sets the post queue depth for dispatcher-created
// affinity loops.
func WithLoopBuffer(n int) Option {
	return func(d *Dispatcher) error {
		if n <= 0 {
			return ErrInvalidQueueDepth
		}
		d.config.LoopBuffer = n
		return nil
	}
}

// WithShutdownTimeout sets the graceful shutdown bound applied by Stop
// when the caller's context has no deadline of its own.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) error {
		d.config.ShutdownTimeout = timeout
		return nil
	}
}

// WithExtension registers an extension with the dispatcher.
func WithExtension(e ext.Extension) Option {
	return func(d *Dispatcher) error {
		d.pendingExts = append(d.pendingExts, e)
		return nil
	}
}
