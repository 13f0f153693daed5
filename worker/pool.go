// Package worker provides the shared worker pool — the context-neutral
// execution substrate completions land on by default. The pool consumes
// opaque self-describing work items, so a completion record can be
// submitted directly without a wrapper allocation.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrStopped is returned by Submit when the pool is not running.
var ErrStopped = errors.New("worker: pool stopped")

// Item is a self-describing unit of work. The pool knows nothing about
// what it runs; Run is the item's own invocation entry point.
type Item interface {
	Run()
}

// Pool manages a fixed set of worker goroutines consuming a bounded work
// queue. Submission to a full queue blocks (backpressure); accepted work is
// never silently dropped. Items that panic propagate on the worker
// goroutine — wrap callbacks with middleware.Recover if that is not
// acceptable.
type Pool struct {
	name        string
	concurrency int
	queueDepth  int
	logger      *slog.Logger

	items  chan Item
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// Option configures a Pool.
type Option func(*Pool)

// WithConcurrency sets the number of worker goroutines.
func WithConcurrency(n int) Option {
	return func(p *Pool) { p.concurrency = n }
}

// WithQueueDepth sets the size of the bounded work queue.
func WithQueueDepth(n int) Option {
	return func(p *Pool) { p.queueDepth = n }
}

// NewPool creates a worker pool. Call Start before submitting work.
func NewPool(name string, logger *slog.Logger, opts ...Option) *Pool {
	p := &Pool{
		name:        name,
		concurrency: 10,
		queueDepth:  256,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.items = make(chan Item, p.queueDepth)
	p.stopCh = make(chan struct{})
	return p
}

// Start launches the worker goroutines. It returns immediately and is a
// no-op if the pool is already running.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true

	p.logger.Info("worker pool starting",
		slog.String("pool", p.name),
		slog.Int("concurrency", p.concurrency),
		slog.Int("queue_depth", p.queueDepth),
	)

	for range p.concurrency {
		p.wg.Add(1)
		go p.workLoop()
	}

	return nil
}

// Stop signals the workers to stop and waits for them to drain the queue.
// If the context expires first, Stop returns ctx.Err without waiting
// further; already-submitted items still run on their worker goroutines.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	p.logger.Info("worker pool stopping", slog.String("pool", p.name))

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped", slog.String("pool", p.name))
		return nil
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out", slog.String("pool", p.name))
		return ctx.Err()
	}
}

// Submit enqueues a work item. It blocks while the queue is full and
// returns ErrStopped if the pool is not running.
func (p *Pool) Submit(item Item) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrStopped
	}
	p.mu.Unlock()

	select {
	case p.items <- item:
		return nil
	case <-p.stopCh:
		return ErrStopped
	}
}

// workLoop is run by each worker goroutine. On stop it drains whatever is
// already queued before exiting, so accepted work always runs.
func (p *Pool) workLoop() {
	defer p.wg.Done()

	for {
		select {
		case item := <-p.items:
			item.Run()
		case <-p.stopCh:
			for {
				select {
				case item := <-p.items:
					item.Run()
				default:
					return
				}
			}
		}
	}
}
