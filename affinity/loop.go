// Package affinity provides the synchronization-affinity poster: a
// single-goroutine message loop. Everything posted to a Loop runs on the
// loop's own goroutine in post order, which is the "must run on this
// target" guarantee a completion record's poster field expresses.
package affinity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/xraph/conduit/completion"
)

var _ completion.Poster = (*Loop)(nil)

// message is one posted callback+state pair.
type message struct {
	cb    completion.Callback
	state any
}

// Loop is a message loop with a dedicated goroutine. Posted callbacks run
// there in FIFO order. Callback panics propagate on the loop goroutine;
// the loop never swallows them.
type Loop struct {
	name   string
	buffer int
	logger *slog.Logger

	posts  chan message
	stopCh chan struct{}
	done   chan struct{}
	gid    atomic.Uint64

	mu      sync.Mutex
	running bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithBuffer sets the post queue depth.
func WithBuffer(n int) Option {
	return func(l *Loop) { l.buffer = n }
}

// NewLoop creates a message loop. Call Start before posting.
func NewLoop(name string, logger *slog.Logger, opts ...Option) *Loop {
	l := &Loop{
		name:   name,
		buffer: 64,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.posts = make(chan message, l.buffer)
	l.stopCh = make(chan struct{})
	l.done = make(chan struct{})
	return l
}

// Name returns the loop's identifier.
func (l *Loop) Name() string { return l.name }

// Start launches the loop goroutine. No-op if already running.
func (l *Loop) Start(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil
	}
	l.running = true

	l.logger.Info("affinity loop starting", slog.String("loop", l.name))
	go l.run()
	return nil
}

// Stop signals the loop to exit and waits for it to drain already-posted
// work. Affinity is a hard requirement, so pending posts run before the
// goroutine exits; if the context expires first, Stop returns ctx.Err and
// the drain continues in the background.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	l.mu.Unlock()

	l.logger.Info("affinity loop stopping", slog.String("loop", l.name))
	close(l.stopCh)

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		l.logger.Warn("affinity loop shutdown timed out", slog.String("loop", l.name))
		return ctx.Err()
	}
}

// Post hands a callback to the loop goroutine. It blocks while the post
// queue is full. Posting to a stopped loop is an owner lifecycle bug; the
// post is dropped with an error log because there is no target left to
// honor the affinity on.
func (l *Loop) Post(cb completion.Callback, state any) {
	l.mu.Lock()
	running := l.running
	l.mu.Unlock()

	if !running {
		l.logger.Error("post dropped: affinity loop stopped", slog.String("loop", l.name))
		return
	}

	select {
	case l.posts <- message{cb: cb, state: state}:
	case <-l.stopCh:
		l.logger.Error("post dropped: affinity loop stopped", slog.String("loop", l.name))
	}
}

// OnLoop reports whether the caller is running on the loop goroutine.
func (l *Loop) OnLoop() bool {
	return goid() == l.gid.Load()
}

// run is the loop goroutine. On stop it drains the queue before exiting.
func (l *Loop) run() {
	l.gid.Store(goid())
	defer close(l.done)

	for {
		select {
		case m := <-l.posts:
			m.cb(context.Background(), m.state)
		case <-l.stopCh:
			for {
				select {
				case m := <-l.posts:
					m.cb(context.Background(), m.state)
				default:
					return
				}
			}
		}
	}
}
