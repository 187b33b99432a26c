package middleware

import (
	"context"
)

// Timeout returns middleware that bounds the handler context by
// op.Timeout when it is non-zero.
func Timeout() Middleware {
	return func(ctx context.Context, op *Operation, next Handler) error {
		if op.Timeout <= 0 {
			return next(ctx)
		}
		ctx, cancel := context.WithTimeout(ctx, op.Timeout)
		defer cancel()
		return next(ctx)
	}
}
