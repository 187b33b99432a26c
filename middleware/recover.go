package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Recover returns middleware that recovers from panics in the handler chain.
// Panics are converted to errors and logged with a stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, op *Operation, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(ctx, "operation panicked",
					slog.String("operation", op.Name),
					slog.String("session_id", op.SessionID),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				retErr = fmt.Errorf("panic in %s: %v", op.Name, r)
			}
		}()
		return next(ctx)
	}
}
