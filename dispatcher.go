package conduit

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/conduit/affinity"
	"github.com/xraph/conduit/awaiter"
	"github.com/xraph/conduit/completion"
	"github.com/xraph/conduit/ext"
	"github.com/xraph/conduit/sched"
	"github.com/xraph/conduit/worker"
)

// Dispatcher is the central coordinator: it owns the default worker pool
// (the context-neutral completion substrate), named affinity loops, and
// the extension registry, and hands out wired completion waiters.
type Dispatcher struct {
	config      Config
	logger      *slog.Logger
	pendingExts []ext.Extension

	pool       *worker.Pool
	scheduler  *sched.Pool
	extensions *ext.Registry

	mu      sync.Mutex
	loops   map[string]*affinity.Loop
	started bool
}

// New creates a Dispatcher with the given options.
func New(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		config: DefaultConfig(),
		logger: slog.Default(),
		loops:  make(map[string]*affinity.Loop),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	d.extensions = ext.NewRegistry(d.logger)
	for _, e := range d.pendingExts {
		d.extensions.Register(e)
	}
	d.pendingExts = nil

	d.pool = worker.NewPool("conduit", d.logger,
		worker.WithConcurrency(d.config.PoolSize),
		worker.WithQueueDepth(d.config.QueueDepth),
	)
	d.scheduler = sched.NewPool(d.pool,
		sched.AsDefault(),
		sched.WithLogger(d.logger),
	)

	return d, nil
}

// Logger returns the dispatcher's logger.
func (d *Dispatcher) Logger() *slog.Logger { return d.logger }

// Config returns a copy of the dispatcher's configuration.
func (d *Dispatcher) Config() Config { return d.config }

// Extensions returns the extension registry.
func (d *Dispatcher) Extensions() *ext.Registry { return d.extensions }

// Scheduler returns the default worker-pool scheduler. Records dispatched
// through it with no captured context take the raw work-item fast path.
func (d *Dispatcher) Scheduler() completion.Scheduler { return d.scheduler }

// Start launches the default worker pool. It returns immediately; affinity
// loops start lazily on first use.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil
	}
	if err := d.pool.Start(ctx); err != nil {
		return err
	}
	d.started = true
	return nil
}

// Stop gracefully shuts down the dispatcher: the pool and all affinity
// loops drain concurrently, bounded by ShutdownTimeout when ctx carries no
// deadline of its own, then extensions are notified.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return nil
	}
	d.started = false
	loops := make([]*affinity.Loop, 0, len(d.loops))
	for _, l := range d.loops {
		loops = append(loops, l)
	}
	d.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok && d.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.ShutdownTimeout)
		defer cancel()
	}

	d.logger.Info("dispatcher stopping")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.pool.Stop(gctx)
	})
	for _, l := range loops {
		g.Go(func() error {
			return l.Stop(gctx)
		})
	}
	err := g.Wait()

	d.extensions.EmitShutdown(ctx)

	if err != nil {
		d.logger.Warn("dispatcher stopped with shutdown errors",
			slog.String("error", err.Error()),
		)
		return err
	}
	d.logger.Info("dispatcher stopped")
	return nil
}

// Loop returns the named affinity loop, creating and starting it on first
// use. Completions registered with this loop as their affinity always run
// on its goroutine, regardless of scheduler.
func (d *Dispatcher) Loop(name string) *affinity.Loop {
	d.mu.Lock()
	defer d.mu.Unlock()

	if l, ok := d.loops[name]; ok {
		return l
	}
	l := affinity.NewLoop(name, d.logger, affinity.WithBuffer(d.config.LoopBuffer))
	_ = l.Start(context.Background()) // Start on a fresh loop cannot fail.
	d.loops[name] = l
	return l
}

// NewWaiter creates a completion waiter dispatching through the default
// pool scheduler, wired with the dispatcher's logger and extensions.
// Additional awaiter options are appended after the dispatcher's own.
func (d *Dispatcher) NewWaiter(label string, opts ...awaiter.Option) *awaiter.Waiter {
	base := []awaiter.Option{
		awaiter.WithLogger(d.logger),
		awaiter.WithExtensions(d.extensions),
	}
	return awaiter.New(label, d.scheduler, append(base, opts...)...)
}
