// Package ext defines the extension system for bequest.
//
// Extensions are notified of lifecycle events and can react to them,
// recording metrics or writing audit logs.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnWorkflowCompleted(ctx context.Context, s *workflow.State, res *workflow.Result, elapsed time.Duration) error {
//	    log.Printf("session %s allocated %s in %s", s.SessionID, res.Total, elapsed)
//	    return nil
//	}
//
// # Workflow Lifecycle Hooks
//
//   - [WorkflowStarted]: an allocation session began
//   - [StepSubmitted]: a step record was persisted
//   - [ReconciliationFailed]: the final shares did not reach the target
//   - [WorkflowCompleted]: the allocation reconciled
//   - [WorkflowAbandoned]: the session was abandoned
//
// # Submission and Notification Hooks
//
//   - [WillSubmitted]: the ledger accepted an allocation
//   - [SubmissionFailed]: the ledger call failed
//   - [NotificationSent] and [NotificationFailed]: beneficiary notification outcome
//   - [Shutdown]: the service is shutting down gracefully
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface. The Registry itself
// satisfies workflow.Emitter, so it can be handed straight to a controller.
package ext
