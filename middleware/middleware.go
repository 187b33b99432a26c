package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/venu630/bequest"
)

// Operation describes one engine call passing through the chain.
type Operation struct {
	// Name is the operation, e.g. "workflow.submit".
	Name string
	// SessionID is the workflow session, when the operation has one.
	SessionID string
	// Timeout bounds the operation when non-zero.
	Timeout time.Duration
}

// Handler is the terminal function that performs the operation.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic. Middleware MUST
// call next to continue the chain unless short-circuiting on error.
type Middleware func(ctx context.Context, op *Operation, next Handler) error

// Chain composes multiple middleware into a single Middleware. The first
// middleware in the list is the outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, op *Operation, next Handler) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, op, prev)
			}
		}
		return h(ctx)
	}
}

// Status classifies an operation outcome as "ok", "rejected" for expected
// workflow refusals the user can correct, or "error".
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, bequest.ErrValidationBlocked),
		errors.Is(err, bequest.ErrReconciliation),
		errors.Is(err, bequest.ErrAtBoundary),
		errors.Is(err, bequest.ErrConfig),
		errors.Is(err, bequest.ErrWorkflowClosed):
		return "rejected"
	default:
		return "error"
	}
}
