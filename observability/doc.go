// Package observability provides an OpenTelemetry metrics extension for
// bequest. The MetricsExtension implements lifecycle hooks to record
// counters for sessions, steps, reconciliation failures, ledger
// submissions and notifications.
//
// For per-operation tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
