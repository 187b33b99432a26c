package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for bequest metrics.
const meterName = "github.com/venu630/bequest"

// Metrics returns middleware that records per-operation metrics using the
// global MeterProvider.
//
// Instruments:
//   - bequest.operation.duration (Float64Histogram): seconds, with
//     attributes operation and status
//   - bequest.operation.calls (Int64Counter): total calls, with
//     attributes operation and status
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// The OTel API returns noop instruments alongside any error.
	duration, _ := meter.Float64Histogram(
		"bequest.operation.duration",
		metric.WithDescription("Duration of engine operations in seconds"),
		metric.WithUnit("s"),
	)
	calls, _ := meter.Int64Counter(
		"bequest.operation.calls",
		metric.WithDescription("Total number of engine operations"),
		metric.WithUnit("{call}"),
	)

	return func(ctx context.Context, op *Operation, next Handler) error {
		start := time.Now()
		err := next(ctx)

		attrs := metric.WithAttributes(
			attribute.String("operation", op.Name),
			attribute.String("status", Status(err)),
		)
		duration.Record(ctx, time.Since(start).Seconds(), attrs)
		calls.Add(ctx, 1, attrs)
		return err
	}
}
