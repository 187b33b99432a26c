// Package engine wires the bequest subsystems together. It creates the
// extension registry, the middleware chain and the workflow definition
// registry, and exposes the operations the HTTP surface drives: workflow
// sessions, will submissions, documents and notifications.
//
// This package exists to break the import cycle: the root bequest package
// defines the sentinels and configuration imported by every subsystem, so
// it cannot import those packages back. The engine sits above all
// subsystem packages and below the application layer.
//
// Every operation passes through the middleware chain
// recover → tracing → metrics → logging → timeout, followed by any
// middleware added with WithMiddleware. Operations on the same session are
// serialised.
package engine
