package middleware_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/venu630/bequest"
	mw "github.com/venu630/bequest/middleware"
)

func setupTestTracer() (*tracetest.SpanRecorder, trace.Tracer) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return sr, tp.Tracer("test")
}

func attrMap(kvs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestTracing_CreatesSpan(t *testing.T) {
	sr, tracer := setupTestTracer()

	err := mw.TracingWithTracer(tracer)(context.Background(), newTestOp(), func(_ context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "bequest.workflow.submit" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", spans[0].Status().Code)
	}

	attrs := attrMap(spans[0].Attributes())
	if attrs["bequest.operation"] != "workflow.submit" {
		t.Errorf("bequest.operation = %q", attrs["bequest.operation"])
	}
	if attrs["bequest.session_id"] != "wfs_test" {
		t.Errorf("bequest.session_id = %q", attrs["bequest.session_id"])
	}
	if attrs["bequest.status"] != "ok" {
		t.Errorf("bequest.status = %q", attrs["bequest.status"])
	}
}

func TestTracing_RecordsError(t *testing.T) {
	sr, tracer := setupTestTracer()
	want := errors.New("ledger down")

	err := mw.TracingWithTracer(tracer)(context.Background(), newTestOp(), func(_ context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}

	span := sr.Ended()[0]
	if span.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", span.Status().Code)
	}
	if span.Status().Description != "ledger down" {
		t.Errorf("description = %q", span.Status().Description)
	}
}

func TestTracing_RejectedIsNotAnError(t *testing.T) {
	sr, tracer := setupTestTracer()

	_ = mw.TracingWithTracer(tracer)(context.Background(), newTestOp(), func(_ context.Context) error {
		return bequest.ErrValidationBlocked
	})

	span := sr.Ended()[0]
	if span.Status().Code != codes.Unset {
		t.Errorf("status = %v, want Unset", span.Status().Code)
	}
	if len(span.Events()) != 1 || span.Events()[0].Name != "rejected" {
		t.Errorf("events = %+v", span.Events())
	}
	if attrMap(span.Attributes())["bequest.status"] != "rejected" {
		t.Error("expected rejected status attribute")
	}
}
