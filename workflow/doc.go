// Package workflow implements the sequential allocation workflow: a
// multi-step form in which each step collects one beneficiary, every step
// is validated on its own, and the share field across all steps must add
// up to the allocation target before the workflow can finish.
//
// # Starting a Workflow
//
//	count, err := workflow.ParseStepCount(r.FormValue("count"))
//	if err != nil {
//	    return err // *workflow.ConfigError
//	}
//	c, err := workflow.Start(ctx, stepStore, workflow.Config{
//	    TotalSteps: count,
//	    ShareField: validate.FieldShare,
//	}, workflow.WithSchema(validate.BeneficiarySchema()))
//
// # Driving Steps
//
// The surface reports every edit through [Controller.UpdateCurrentStepFields]
// (or [Controller.UpdateCurrentStep] when it validates itself), then calls
// [Controller.SubmitCurrent]. Submitting an invalid draft is rejected with
// [bequest.ErrValidationBlocked] and changes nothing.
//
//	if _, err := c.UpdateCurrentStepFields(fields); err != nil {
//	    return err
//	}
//	res, err := c.SubmitCurrent(ctx)
//
// SubmitCurrent returns a non-nil [Result] only when the last step was
// submitted and the shares reconciled. A failed reconciliation returns a
// [*ReconciliationError] carrying the actual total and leaves every record
// in place so the user can go back and fix a share.
//
// # State Machine
//
//	active(i) → active(i+1)   submit, i < N
//	active(i) → active(i-1)   previous, i > 1
//	active(N) → completed     submit, shares reconcile
//	active(i) → abandoned     abandon
//
// Completed and abandoned are terminal: the step store is cleared and any
// further operation fails with [bequest.ErrWorkflowClosed].
//
// # Key Types
//
//   - [Config] — step count, share field and target, fixed at start
//   - [State] — the serialisable session state kept between requests
//   - [Controller] — the state machine over one session
//   - [Definition] — a named step schema, registered in a [Registry]
//   - [StateStore] — the persistence contract for session state
package workflow
