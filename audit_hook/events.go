package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionWorkflowStarted      = "workflow.started"
	ActionStepSubmitted        = "workflow.step_submitted"
	ActionReconciliationFailed = "workflow.reconciliation_failed"
	ActionWorkflowCompleted    = "workflow.completed"
	ActionWorkflowAbandoned    = "workflow.abandoned"
	ActionWillSubmitted        = "will.submitted"
	ActionSubmissionFailed     = "will.submission_failed"
	ActionNotificationSent     = "notification.sent"
	ActionNotificationFailed   = "notification.failed"
)

// Audit event categories group related actions.
const (
	CategoryWorkflow     = "bequest.workflow"
	CategorySubmission   = "bequest.submission"
	CategoryNotification = "bequest.notification"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceSession      = "session"
	ResourceSubmission   = "submission"
	ResourceNotification = "notification"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionWorkflowStarted,
		ActionStepSubmitted,
		ActionReconciliationFailed,
		ActionWorkflowCompleted,
		ActionWorkflowAbandoned,
		ActionWillSubmitted,
		ActionSubmissionFailed,
		ActionNotificationSent,
		ActionNotificationFailed,
	}
}
