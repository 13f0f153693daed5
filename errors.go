package conduit

import "errors"

var (
	// ErrInvalidPoolSize is returned by WithPoolSize for a non-positive
	// size.
	ErrInvalidPoolSize = errors.New("conduit: pool size must be positive")

	// ErrInvalidQueueDepth is returned by WithQueueDepth for a
	// non-positive depth.
	ErrInvalidQueueDepth = errors.New("conduit: queue depth must be positive")
)
