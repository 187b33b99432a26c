// Package middleware provides composable middleware around engine
// operations (start, update, submit, previous, abandon, resubmit).
//
// A [Middleware] wraps an operation handler. Middleware are composed into
// a chain using [Chain] and applied right-to-left: the first middleware in
// the slice is the outermost wrapper.
//
//	// recover → logging → handler
//	chain := middleware.Chain(middleware.Recover(logger), middleware.Logging(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs operation name, session, duration and outcome
//   - [Recover] — catches panics and converts them to errors
//   - [Timeout] — bounds the operation context when the operation sets one
//   - [Tracing] — wraps the operation in an OpenTelemetry span
//   - [Metrics] — records per-operation duration and outcome counters
//
// Outcomes are classified by [Status]: expected workflow refusals such as
// a blocked submit or a failed reconciliation are "rejected", not "error".
package middleware
