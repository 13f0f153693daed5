package sched

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/xraph/conduit/completion"
)

// Throttle applies a token-bucket rate limit in front of another scheduler.
// Over-limit submissions are deferred by the limiter's reservation delay,
// never dropped: a completion dispatch is irrevocable once handed off.
type Throttle struct {
	inner   completion.Scheduler
	limiter *rate.Limiter
}

// NewThrottle wraps inner with a limit of perSecond sustained dispatches
// and the given burst. A burst below 1 is treated as 1, and a non-positive
// rate disables limiting. A zero limit would let the reservation delay grow
// unbounded, which amounts to dropping the dispatch.
func NewThrottle(inner completion.Scheduler, perSecond float64, burst int) *Throttle {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &Throttle{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Schedule forwards to the inner scheduler, delaying by the limiter's
// reservation when the bucket is empty.
func (t *Throttle) Schedule(cb completion.Callback, state any) {
	delay := t.limiter.Reserve().Delay()
	if delay <= 0 {
		t.inner.Schedule(cb, state)
		return
	}
	time.AfterFunc(delay, func() {
		t.inner.Schedule(cb, state)
	})
}
