package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for bequest tracing.
const tracerName = "github.com/venu630/bequest"

// Tracing returns middleware that wraps each operation in an OpenTelemetry
// span using the global TracerProvider.
//
// Span attributes: bequest.operation, bequest.session_id, bequest.status.
// Failures set the span status to codes.Error; rejected operations keep
// an Unset status and record the reason as an event.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, op *Operation, next Handler) error {
		ctx, span := tracer.Start(ctx, "bequest."+op.Name,
			trace.WithAttributes(
				attribute.String("bequest.operation", op.Name),
				attribute.String("bequest.session_id", op.SessionID),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		status := Status(err)
		span.SetAttributes(attribute.String("bequest.status", status))
		switch status {
		case "ok":
			span.SetStatus(codes.Ok, "")
		case "rejected":
			span.AddEvent("rejected", trace.WithAttributes(attribute.String("reason", err.Error())))
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
}
