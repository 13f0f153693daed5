package awaiter_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/conduit/awaiter"
	"github.com/xraph/conduit/completion"
	"github.com/xraph/conduit/ext"
	"github.com/xraph/conduit/middleware"
	"github.com/xraph/conduit/sched"
)

func increment(_ context.Context, state any) {
	state.(*atomic.Int64).Add(1)
}

func TestWaiter_RegisterThenComplete(t *testing.T) {
	w := awaiter.New("read", sched.Inline{})

	var n atomic.Int64
	if err := w.OnComplete(increment, &n); err != nil {
		t.Fatalf("register error: %v", err)
	}
	if !w.Registered() {
		t.Fatal("Registered() = false after OnComplete")
	}
	if n.Load() != 0 {
		t.Fatal("callback ran before completion")
	}

	w.Complete()
	if n.Load() != 1 {
		t.Errorf("counter = %d, want 1", n.Load())
	}
	if w.Registered() {
		t.Error("Registered() = true after dispatch")
	}
}

func TestWaiter_CompleteThenRegisterDispatchesImmediately(t *testing.T) {
	w := awaiter.New("read", sched.Inline{})

	w.Complete()
	if !w.Completed() {
		t.Fatal("Completed() = false after Complete")
	}

	var n atomic.Int64
	if err := w.OnComplete(increment, &n); err != nil {
		t.Fatalf("register error: %v", err)
	}
	if n.Load() != 1 {
		t.Errorf("counter = %d, want 1 (immediate dispatch)", n.Load())
	}
}

func TestWaiter_DoubleRegister(t *testing.T) {
	w := awaiter.New("read", sched.Inline{})

	var n atomic.Int64
	if err := w.OnComplete(increment, &n); err != nil {
		t.Fatalf("register error: %v", err)
	}
	if err := w.OnComplete(increment, &n); err != awaiter.ErrAlreadyRegistered {
		t.Errorf("error = %v, want %v", err, awaiter.ErrAlreadyRegistered)
	}
}

func TestWaiter_NilCallback(t *testing.T) {
	w := awaiter.New("read", sched.Inline{})
	if err := w.OnComplete(nil, nil); err != awaiter.ErrNilCallback {
		t.Errorf("error = %v, want %v", err, awaiter.ErrNilCallback)
	}
}

func TestWaiter_CompleteWithoutRegistrationIsNoOp(t *testing.T) {
	w := awaiter.New("read", sched.Inline{})
	w.Complete()
	w.Complete()
}

func TestWaiter_DoubleCompleteDispatchesOnce(t *testing.T) {
	w := awaiter.New("read", sched.Inline{})

	var n atomic.Int64
	if err := w.OnComplete(increment, &n); err != nil {
		t.Fatalf("register error: %v", err)
	}
	w.Complete()
	w.Complete()
	if n.Load() != 1 {
		t.Errorf("counter = %d, want exactly 1", n.Load())
	}
}

func TestWaiter_Cancel(t *testing.T) {
	w := awaiter.New("read", sched.Inline{})

	var n atomic.Int64
	if err := w.OnComplete(increment, &n); err != nil {
		t.Fatalf("register error: %v", err)
	}

	if !w.Cancel() {
		t.Fatal("Cancel() = false with a pending registration")
	}
	if w.Cancel() {
		t.Fatal("Cancel() = true without a pending registration")
	}

	w.Complete()
	if n.Load() != 0 {
		t.Errorf("counter = %d, want 0 (canceled callback must not run)", n.Load())
	}
}

func TestWaiter_ResetAndReuse(t *testing.T) {
	w := awaiter.New("read", sched.Inline{})

	var n atomic.Int64
	for range 3 {
		if err := w.OnComplete(increment, &n); err != nil {
			t.Fatalf("register error: %v", err)
		}
		w.Complete()
		w.Reset()
	}
	if n.Load() != 3 {
		t.Errorf("counter = %d, want 3 (one per cycle)", n.Load())
	}
	if w.Completed() {
		t.Error("Completed() = true after Reset")
	}
}

type ctxKey struct{}

type valueToken struct{ value string }

func (t valueToken) Context() context.Context {
	return context.WithValue(context.Background(), ctxKey{}, t.value)
}

func TestWaiter_TokenRestoredForCallback(t *testing.T) {
	w := awaiter.New("read", sched.Inline{})

	var observed any
	err := w.OnComplete(func(ctx context.Context, _ any) {
		observed = ctx.Value(ctxKey{})
	}, nil, awaiter.WithToken(valueToken{value: "ambient"}))
	if err != nil {
		t.Fatalf("register error: %v", err)
	}

	w.Complete()
	if observed != "ambient" {
		t.Errorf("observed = %v, want ambient", observed)
	}
}

// recordPoster runs posts synchronously, noting that it was used.
type recordPoster struct {
	posts int
}

func (p *recordPoster) Post(cb completion.Callback, state any) {
	p.posts++
	cb(context.Background(), state)
}

func TestWaiter_AffinityWinsOverScheduler(t *testing.T) {
	w := awaiter.New("read", sched.Inline{})
	p := &recordPoster{}

	var n atomic.Int64
	if err := w.OnComplete(increment, &n, awaiter.WithAffinity(p)); err != nil {
		t.Fatalf("register error: %v", err)
	}

	w.Complete()
	if p.posts != 1 {
		t.Errorf("poster posts = %d, want 1", p.posts)
	}
	if n.Load() != 1 {
		t.Errorf("counter = %d, want 1", n.Load())
	}
}

// queuedPoster holds one post until the test releases it.
type queuedPoster struct {
	cb    completion.Callback
	state any
}

func (p *queuedPoster) Post(cb completion.Callback, state any) {
	p.cb = cb
	p.state = state
}

func (p *queuedPoster) fire() {
	p.cb(context.Background(), p.state)
}

func TestWaiter_ReuseBlockedUntilDispatchDelivered(t *testing.T) {
	w := awaiter.New("read", sched.Inline{})
	p := &queuedPoster{}

	var first, second atomic.Int64
	if err := w.OnComplete(increment, &first, awaiter.WithAffinity(p)); err != nil {
		t.Fatalf("register error: %v", err)
	}

	// Complete hands the dispatch to the poster, which has not run it yet.
	// The record still belongs to that dispatch, so re-registration must be
	// refused rather than overwrite the pending callback.
	w.Complete()
	if err := w.OnComplete(increment, &second); err != awaiter.ErrDispatchInFlight {
		t.Fatalf("error = %v, want %v", err, awaiter.ErrDispatchInFlight)
	}

	p.fire()
	if first.Load() != 1 {
		t.Errorf("first counter = %d, want 1 (dispatch is irrevocable)", first.Load())
	}
	if second.Load() != 0 {
		t.Errorf("second counter = %d, want 0 (refused registration must not run)", second.Load())
	}

	// With the first dispatch delivered, the waiter is reusable and the
	// completed operation dispatches the new callback immediately.
	if err := w.OnComplete(increment, &second); err != nil {
		t.Fatalf("register error after delivery: %v", err)
	}
	if second.Load() != 1 {
		t.Errorf("second counter = %d, want 1", second.Load())
	}
	if first.Load() != 1 {
		t.Errorf("first counter = %d, want still 1", first.Load())
	}
}

func TestWaiter_MiddlewareApplied(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next completion.Callback) completion.Callback {
			return func(ctx context.Context, state any) {
				order = append(order, name)
				next(ctx, state)
			}
		}
	}

	w := awaiter.New("read", sched.Inline{},
		awaiter.WithLogger(slog.Default()),
		awaiter.WithMiddleware(tag("outer"), tag("inner")),
	)

	if err := w.OnComplete(func(_ context.Context, _ any) {
		order = append(order, "callback")
	}, nil); err != nil {
		t.Fatalf("register error: %v", err)
	}
	w.Complete()

	want := []string{"outer", "inner", "callback"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

// hookRecorder captures lifecycle events.
type hookRecorder struct {
	events []string
	routes []completion.Route
}

func (h *hookRecorder) Name() string { return "hook-recorder" }

func (h *hookRecorder) OnCompletionRegistered(_ context.Context, label string) error {
	h.events = append(h.events, "registered:"+label)
	return nil
}

func (h *hookRecorder) OnCompletionDispatched(_ context.Context, label string, route completion.Route, _ time.Duration) error {
	h.events = append(h.events, "dispatched:"+label)
	h.routes = append(h.routes, route)
	return nil
}

func (h *hookRecorder) OnCompletionCanceled(_ context.Context, label string) error {
	h.events = append(h.events, "canceled:"+label)
	return nil
}

func TestWaiter_EmitsLifecycleHooks(t *testing.T) {
	reg := ext.NewRegistry(slog.Default())
	rec := &hookRecorder{}
	reg.Register(rec)

	w := awaiter.New("read", sched.Inline{}, awaiter.WithExtensions(reg))

	var n atomic.Int64
	if err := w.OnComplete(increment, &n); err != nil {
		t.Fatalf("register error: %v", err)
	}
	w.Complete()

	w.Reset()
	if err := w.OnComplete(increment, &n); err != nil {
		t.Fatalf("register error: %v", err)
	}
	w.Cancel()

	want := []string{"registered:read", "dispatched:read", "registered:read", "canceled:read"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, rec.events[i], want[i])
		}
	}
	if len(rec.routes) != 1 || rec.routes[0] != completion.RouteScheduler {
		t.Errorf("routes = %v, want [%v]", rec.routes, completion.RouteScheduler)
	}
}
