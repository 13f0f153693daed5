package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/conduit/completion"
)

// tracerName is the instrumentation scope name for conduit tracing.
const tracerName = "github.com/xraph/conduit"

// Tracing returns middleware that wraps each callback run in an
// OpenTelemetry span. If no TracerProvider is configured globally, the
// default noop tracer is used and this middleware becomes a pass-through
// with zero overhead.
//
// Span attributes: conduit.completion (the waiter label). A panicking
// callback sets the span status to codes.Error before the panic continues
// to propagate.
func Tracing(label string) Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer, label)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer, label string) Middleware {
	return func(next completion.Callback) completion.Callback {
		return func(ctx context.Context, state any) {
			ctx, span := tracer.Start(ctx, "conduit.completion.run",
				trace.WithAttributes(
					attribute.String("conduit.completion", label),
				),
				trace.WithSpanKind(trace.SpanKindInternal),
			)
			defer span.End()

			defer func() {
				if r := recover(); r != nil {
					span.SetStatus(codes.Error, fmt.Sprint(r))
					panic(r)
				}
				span.SetStatus(codes.Ok, "")
			}()
			next(ctx, state)
		}
	}
}
