package conduit

import "time"

// Config holds configuration for the Dispatcher.
type Config struct {
	// PoolSize is the number of worker goroutines in the default pool.
	PoolSize int

	// QueueDepth is the size of the default pool's bounded work queue.
	QueueDepth int

	// LoopBuffer is the post queue depth for affinity loops created by
	// the dispatcher.
	LoopBuffer int

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PoolSize:        10,
		QueueDepth:      256,
		LoopBuffer:      64,
		ShutdownTimeout: 30 * time.Second,
	}
}
