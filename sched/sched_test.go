package sched_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/conduit/completion"
	"github.com/xraph/conduit/sched"
	"github.com/xraph/conduit/worker"
)

func increment(_ context.Context, state any) {
	state.(*atomic.Int64).Add(1)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for condition")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestInline_RunsSynchronously(t *testing.T) {
	var n atomic.Int64
	sched.Inline{}.Schedule(increment, &n)
	if n.Load() != 1 {
		t.Errorf("counter = %d, want 1 immediately after Schedule", n.Load())
	}
}

func TestGoroutine_RunsAsynchronously(t *testing.T) {
	var n atomic.Int64
	sched.Goroutine{}.Schedule(increment, &n)
	waitFor(t, func() bool { return n.Load() == 1 })
}

func TestPool_SchedulesOnWorkerPool(t *testing.T) {
	wp := worker.NewPool("test", slog.Default(), worker.WithConcurrency(2))
	if err := wp.Start(context.Background()); err != nil {
		t.Fatalf("start error: %v", err)
	}
	defer wp.Stop(context.Background())

	s := sched.NewPool(wp)

	var n atomic.Int64
	s.Schedule(increment, &n)
	waitFor(t, func() bool { return n.Load() == 1 })
}

func TestPool_DefaultMarker(t *testing.T) {
	wp := worker.NewPool("test", slog.Default())

	if sched.NewPool(wp).DefaultPool() {
		t.Error("DefaultPool() = true without AsDefault")
	}
	if !sched.NewPool(wp, sched.AsDefault()).DefaultPool() {
		t.Error("DefaultPool() = false with AsDefault")
	}
}

func TestPool_RecordFastPath(t *testing.T) {
	wp := worker.NewPool("test", slog.Default(), worker.WithConcurrency(1))
	if err := wp.Start(context.Background()); err != nil {
		t.Fatalf("start error: %v", err)
	}
	defer wp.Stop(context.Background())

	s := sched.NewPool(wp, sched.AsDefault())

	var r completion.Record
	var n atomic.Int64
	r.Set(increment, &n, nil, nil)

	route := r.TrySchedule(s)
	if route != completion.RoutePool {
		t.Fatalf("route = %v, want %v", route, completion.RoutePool)
	}
	waitFor(t, func() bool { return n.Load() == 1 })
}

func TestThrottle_DelaysButNeverDrops(t *testing.T) {
	// 1 token burst, slow refill: the second dispatch must be deferred.
	th := sched.NewThrottle(sched.Inline{}, 20, 1)

	var n atomic.Int64
	th.Schedule(increment, &n)
	th.Schedule(increment, &n)

	if n.Load() < 1 {
		t.Fatal("first dispatch should pass the limiter immediately")
	}

	// The deferred dispatch fires once the bucket refills (~50ms at 20/s).
	waitFor(t, func() bool { return n.Load() == 2 })
}

func TestThrottle_ZeroBurstTreatedAsOne(t *testing.T) {
	th := sched.NewThrottle(sched.Inline{}, 1000, 0)

	var n atomic.Int64
	th.Schedule(increment, &n)
	waitFor(t, func() bool { return n.Load() == 1 })
}

func TestThrottle_NonPositiveRateIsUnlimited(t *testing.T) {
	// A zero rate would never refill the bucket, deferring every dispatch
	// past any horizon. It must mean "no limit" instead.
	th := sched.NewThrottle(sched.Inline{}, 0, 1)

	var n atomic.Int64
	for range 10 {
		th.Schedule(increment, &n)
	}
	if n.Load() != 10 {
		t.Errorf("counter = %d, want 10 (all dispatches pass immediately)", n.Load())
	}
}
