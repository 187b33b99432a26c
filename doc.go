// Package bequest provides a digital-will service built around a sequential
// allocation workflow: a multi-step beneficiary form in which every step is
// validated on its own and the share field across all steps must add up to
// exactly 100 before the allocation is handed to the ledger.
//
// The package is library-first. Configure a store, build an engine, and drive
// workflow sessions through the engine or the HTTP surface in package api.
//
// # Quick Start
//
//	c, err := bequest.New(
//	    bequest.WithStore(memory.New()),
//	    bequest.WithLogger(logger),
//	)
//	eng, err := engine.Build(c, engine.WithLedger(gateway))
//	sess, err := eng.Start(ctx, engine.StartParams{Count: "3"})
//
// # Architecture
//
// The workflow core (packages step, validate, reconcile and workflow) never
// performs network I/O. Mail delivery, ledger submission and document pinning
// are external collaborators (packages notify, ledger and pin). The ledger is
// called once a workflow completes; pinning and mail run on request or, for
// mail, when a disbursement event arrives (package disburse).
//
// All entity IDs use TypeID: type-prefixed, K-sortable, UUIDv7-based
// identifiers.
package bequest
