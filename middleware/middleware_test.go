package middleware_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/middleware"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOp() *middleware.Operation {
	return &middleware.Operation{Name: "workflow.submit", SessionID: "wfs_test"}
}

func TestChain_ExecutionOrder(t *testing.T) {
	var order []string

	mw1 := func(ctx context.Context, _ *middleware.Operation, next middleware.Handler) error {
		order = append(order, "mw1-before")
		err := next(ctx)
		order = append(order, "mw1-after")
		return err
	}

	mw2 := func(ctx context.Context, _ *middleware.Operation, next middleware.Handler) error {
		order = append(order, "mw2-before")
		err := next(ctx)
		order = append(order, "mw2-after")
		return err
	}

	chain := middleware.Chain(mw1, mw2)
	err := chain(context.Background(), newTestOp(), func(_ context.Context) error {
		order = append(order, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"mw1-before", "mw2-before", "handler", "mw2-after", "mw1-after"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(order), order)
	}
	for i, want := range expected {
		if order[i] != want {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want)
		}
	}
}

func TestChain_Empty(t *testing.T) {
	called := false
	err := middleware.Chain()(context.Background(), newTestOp(), func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called with empty chain")
	}
}

func TestChain_PropagatesError(t *testing.T) {
	pass := func(ctx context.Context, _ *middleware.Operation, next middleware.Handler) error {
		return next(ctx)
	}
	want := errors.New("handler error")

	err := middleware.Chain(pass)(context.Background(), newTestOp(), func(_ context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{bequest.ErrValidationBlocked, "rejected"},
		{fmt.Errorf("wrap: %w", bequest.ErrReconciliation), "rejected"},
		{bequest.ErrAtBoundary, "rejected"},
		{bequest.ErrConfig, "rejected"},
		{bequest.ErrWorkflowClosed, "rejected"},
		{bequest.ErrLedger, "error"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := middleware.Status(tt.err); got != tt.want {
			t.Errorf("Status(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRecover_CatchesPanic(t *testing.T) {
	mw := middleware.Recover(discardLogger())

	err := mw(context.Background(), newTestOp(), func(_ context.Context) error {
		panic("test panic")
	})
	if err == nil {
		t.Fatal("expected error from panic recovery")
	}
	if got := err.Error(); got != "panic in workflow.submit: test panic" {
		t.Errorf("unexpected error message: %q", got)
	}
}

func TestRecover_PassesThrough(t *testing.T) {
	mw := middleware.Recover(discardLogger())

	called := false
	err := mw(context.Background(), newTestOp(), func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called")
	}
}

func TestLogging_PassesErrorThrough(t *testing.T) {
	mw := middleware.Logging(discardLogger())

	for _, want := range []error{nil, bequest.ErrAtBoundary, errors.New("fail")} {
		err := mw(context.Background(), newTestOp(), func(_ context.Context) error {
			return want
		})
		if !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
	}
}

func TestTimeout_SetsDeadline(t *testing.T) {
	mw := middleware.Timeout()
	op := newTestOp()
	op.Timeout = time.Second

	err := mw(context.Background(), op, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected a deadline")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestTimeout_NoDeadlineWhenUnset(t *testing.T) {
	err := middleware.Timeout()(context.Background(), newTestOp(), func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			t.Error("unexpected deadline")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
