package sched

import (
	"context"
	"log/slog"

	"github.com/xraph/conduit/completion"
	"github.com/xraph/conduit/worker"
)

// Compile-time interface checks.
var (
	_ completion.Scheduler     = Inline{}
	_ completion.Scheduler     = Goroutine{}
	_ completion.PoolScheduler = (*Pool)(nil)
	_ completion.Scheduler     = (*Throttle)(nil)
)

// Inline runs callbacks synchronously on the caller's goroutine. It is the
// cheapest scheduler and the baseline for tests; callers must tolerate the
// callback running before Schedule returns.
type Inline struct{}

// Schedule invokes cb(state) immediately.
func (Inline) Schedule(cb completion.Callback, state any) {
	cb(context.Background(), state)
}

// Goroutine runs each callback on its own goroutine.
type Goroutine struct{}

// Schedule spawns a goroutine for cb(state).
func (Goroutine) Schedule(cb completion.Callback, state any) {
	go cb(context.Background(), state)
}

// callItem is the heap wrapper the generic pool Schedule path needs. The
// fast path in completion.Record exists to avoid exactly this allocation.
type callItem struct {
	cb    completion.Callback
	state any
}

func (c *callItem) Run() {
	c.cb(context.Background(), c.state)
}

// Pool schedules callbacks onto a shared worker pool. When marked as the
// process-default pool it also accepts raw work items, letting a
// completion record submit itself without a wrapper.
type Pool struct {
	pool      *worker.Pool
	logger    *slog.Logger
	isDefault bool
}

// PoolOption configures a Pool scheduler.
type PoolOption func(*Pool)

// AsDefault marks the scheduler as the process-default worker pool,
// enabling the record fast path.
func AsDefault() PoolOption {
	return func(p *Pool) { p.isDefault = true }
}

// WithLogger sets the logger used to report rejected submissions.
func WithLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) { p.logger = logger }
}

// NewPool creates a scheduler backed by the given worker pool.
func NewPool(pool *worker.Pool, opts ...PoolOption) *Pool {
	p := &Pool{
		pool:   pool,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Schedule wraps the callback in a work item and submits it. A rejected
// submission (stopped pool) is an owner lifecycle bug; it is logged, not
// silently ignored.
func (p *Pool) Schedule(cb completion.Callback, state any) {
	if err := p.pool.Submit(&callItem{cb: cb, state: state}); err != nil {
		p.logger.Error("completion dropped: pool rejected submission",
			slog.String("error", err.Error()),
		)
	}
}

// DefaultPool implements completion.PoolScheduler.
func (p *Pool) DefaultPool() bool { return p.isDefault }

// SubmitItem implements completion.PoolScheduler.
func (p *Pool) SubmitItem(item completion.Item) error {
	return p.pool.Submit(item)
}
