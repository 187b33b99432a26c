package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns middleware that logs each operation's outcome. Rejected
// operations are logged at Info, failures at Error.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, op *Operation, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		attrs := []slog.Attr{
			slog.String("operation", op.Name),
			slog.Duration("elapsed", elapsed),
		}
		if op.SessionID != "" {
			attrs = append(attrs, slog.String("session_id", op.SessionID))
		}

		switch Status(err) {
		case "ok":
			logger.LogAttrs(ctx, slog.LevelDebug, "operation completed", attrs...)
		case "rejected":
			attrs = append(attrs, slog.String("reason", err.Error()))
			logger.LogAttrs(ctx, slog.LevelInfo, "operation rejected", attrs...)
		default:
			attrs = append(attrs, slog.String("error", err.Error()))
			logger.LogAttrs(ctx, slog.LevelError, "operation failed", attrs...)
		}
		return err
	}
}
