package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/conduit/completion"
)

// meterName is the instrumentation scope name for conduit metrics.
const meterName = "github.com/xraph/conduit"

// Metrics returns middleware that records per-callback execution metrics
// using the global OTel MeterProvider. If no MeterProvider is configured,
// noop instruments are used and this middleware becomes a pass-through.
//
// Instruments:
//   - conduit.completion.duration (Float64Histogram): callback run time in
//     seconds, with attributes: completion, status ("ok" or "panic")
//   - conduit.completion.runs (Int64Counter): total callback runs, with
//     the same attributes
func Metrics(label string) Middleware {
	meter := otel.Meter(meterName)
	return MetricsWithMeter(meter, label)
}

// MetricsWithMeter returns metrics middleware using the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func MetricsWithMeter(meter metric.Meter, label string) Middleware {
	// Create instruments once at middleware construction time. OTel
	// instruments are safe for concurrent use. On error, the API returns
	// noop instruments so the middleware degrades gracefully.
	duration, dErr := meter.Float64Histogram(
		"conduit.completion.duration",
		metric.WithDescription("Duration of completion callback runs in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	runs, rErr := meter.Int64Counter(
		"conduit.completion.runs",
		metric.WithDescription("Total number of completion callback runs"),
		metric.WithUnit("{run}"),
	)
	_ = rErr // noop fallback guaranteed by OTel API contract

	record := func(ctx context.Context, start time.Time, status string) {
		attrs := metric.WithAttributes(
			attribute.String("completion", label),
			attribute.String("status", status),
		)
		duration.Record(ctx, time.Since(start).Seconds(), attrs)
		runs.Add(ctx, 1, attrs)
	}

	return func(next completion.Callback) completion.Callback {
		return func(ctx context.Context, state any) {
			start := time.Now()
			defer func() {
				if r := recover(); r != nil {
					record(ctx, start, "panic")
					panic(r)
				}
				record(ctx, start, "ok")
			}()
			next(ctx, state)
		}
	}
}
