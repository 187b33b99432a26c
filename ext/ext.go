package ext

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/venu630/bequest/notify"
	"github.com/venu630/bequest/submission"
	"github.com/venu630/bequest/workflow"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Workflow lifecycle hooks
// ──────────────────────────────────────────────────

// WorkflowStarted is called when an allocation session begins.
type WorkflowStarted interface {
	OnWorkflowStarted(ctx context.Context, s *workflow.State) error
}

// StepSubmitted is called after a step record is persisted.
type StepSubmitted interface {
	OnStepSubmitted(ctx context.Context, s *workflow.State, index int) error
}

// ReconciliationFailed is called when the final submit does not reach
// the target total.
type ReconciliationFailed interface {
	OnReconciliationFailed(ctx context.Context, s *workflow.State, total decimal.Decimal) error
}

// WorkflowCompleted is called after a session reconciles successfully.
type WorkflowCompleted interface {
	OnWorkflowCompleted(ctx context.Context, s *workflow.State, res *workflow.Result, elapsed time.Duration) error
}

// WorkflowAbandoned is called when a session is abandoned.
type WorkflowAbandoned interface {
	OnWorkflowAbandoned(ctx context.Context, s *workflow.State) error
}

// ──────────────────────────────────────────────────
// Submission lifecycle hooks
// ──────────────────────────────────────────────────

// WillSubmitted is called when the ledger accepts an allocation.
type WillSubmitted interface {
	OnWillSubmitted(ctx context.Context, sub *submission.Submission) error
}

// SubmissionFailed is called when the ledger rejects or cannot take an
// allocation.
type SubmissionFailed interface {
	OnSubmissionFailed(ctx context.Context, sub *submission.Submission, err error) error
}

// ──────────────────────────────────────────────────
// Notification hooks
// ──────────────────────────────────────────────────

// NotificationSent is called after a notification is delivered.
type NotificationSent interface {
	OnNotificationSent(ctx context.Context, req *notify.Request, res *notify.Result) error
}

// NotificationFailed is called when a notification could not be delivered.
type NotificationFailed interface {
	OnNotificationFailed(ctx context.Context, req *notify.Request, err error) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
