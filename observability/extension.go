package observability

import (
	"context"
	"time"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/conduit/completion"
	"github.com/xraph/conduit/ext"
)

// Compile-time interface checks.
var (
	_ ext.Extension            = (*MetricsExtension)(nil)
	_ ext.CompletionRegistered = (*MetricsExtension)(nil)
	_ ext.CompletionDispatched = (*MetricsExtension)(nil)
	_ ext.CompletionCanceled   = (*MetricsExtension)(nil)
)

// MetricsExtension records completion lifecycle metrics via a go-utils
// MetricFactory. Register it as a conduit extension to automatically
// track registration, dispatch, and cancellation counts, with dispatches
// broken down by route (pool fast path, scheduler, poster, with/without
// context).
type MetricsExtension struct {
	Registered gu.Counter
	Canceled   gu.Counter

	DispatchedPool             gu.Counter
	DispatchedScheduler        gu.Counter
	DispatchedSchedulerContext gu.Counter
	DispatchedPoster           gu.Counter
	DispatchedPosterContext    gu.Counter
}

// NewMetricsExtension creates a MetricsExtension using a default metrics
// collector.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithFactory(gu.NewMetricsCollector("conduit/observability"))
}

// NewMetricsExtensionWithFactory creates a MetricsExtension with the
// provided MetricFactory. Use fapp.Metrics() in forge extensions, or
// gu.NewMetricsCollector for testing.
func NewMetricsExtensionWithFactory(factory gu.MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		Registered:                 factory.Counter("conduit.completion.registered"),
		Canceled:                   factory.Counter("conduit.completion.canceled"),
		DispatchedPool:             factory.Counter("conduit.completion.dispatched.pool"),
		DispatchedScheduler:        factory.Counter("conduit.completion.dispatched.scheduler"),
		DispatchedSchedulerContext: factory.Counter("conduit.completion.dispatched.scheduler_context"),
		DispatchedPoster:           factory.Counter("conduit.completion.dispatched.poster"),
		DispatchedPosterContext:    factory.Counter("conduit.completion.dispatched.poster_context"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnCompletionRegistered implements ext.CompletionRegistered.
func (m *MetricsExtension) OnCompletionRegistered(_ context.Context, _ string) error {
	m.Registered.Inc()
	return nil
}

// OnCompletionDispatched implements ext.CompletionDispatched.
func (m *MetricsExtension) OnCompletionDispatched(_ context.Context, _ string, route completion.Route, _ time.Duration) error {
	switch route {
	case completion.RoutePool:
		m.DispatchedPool.Inc()
	case completion.RouteScheduler:
		m.DispatchedScheduler.Inc()
	case completion.RouteSchedulerContext:
		m.DispatchedSchedulerContext.Inc()
	case completion.RoutePoster:
		m.DispatchedPoster.Inc()
	case completion.RoutePosterContext:
		m.DispatchedPosterContext.Inc()
	}
	return nil
}

// OnCompletionCanceled implements ext.CompletionCanceled.
func (m *MetricsExtension) OnCompletionCanceled(_ context.Context, _ string) error {
	m.Canceled.Inc()
	return nil
}
