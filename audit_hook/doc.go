// Package audithook is a bequest extension that turns lifecycle events
// into an audit trail.
//
// Every session, submission and notification hook emits a structured
// audit event through the [Recorder] interface. The extension assigns
// severity levels (info for normal operations, warning for rejected
// allocations, critical for failed ledger calls and undelivered
// notifications) and metadata such as the session ID, totals and errors.
//
// # Logging the trail
//
//	audithook.New(audithook.NewSlogRecorder(logger))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionWillSubmitted,
//	        audithook.ActionSubmissionFailed,
//	    ),
//	)
package audithook
