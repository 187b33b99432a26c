package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/venu630/bequest/notify"
	"github.com/venu630/bequest/submission"
	"github.com/venu630/bequest/workflow"
)

// The registry is the controller's lifecycle emitter.
var _ workflow.Emitter = (*Registry)(nil)

// entry pairs a hook implementation with the extension name captured at
// registration time.
type entry[H any] struct {
	name string
	hook H
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	workflowStarted      []entry[WorkflowStarted]
	stepSubmitted        []entry[StepSubmitted]
	reconciliationFailed []entry[ReconciliationFailed]
	workflowCompleted    []entry[WorkflowCompleted]
	workflowAbandoned    []entry[WorkflowAbandoned]
	willSubmitted        []entry[WillSubmitted]
	submissionFailed     []entry[SubmissionFailed]
	notificationSent     []entry[NotificationSent]
	notificationFailed   []entry[NotificationFailed]
	shutdown             []entry[Shutdown]
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// cache appends e to list when it implements H.
func cache[H any](list []entry[H], name string, e Extension) []entry[H] {
	if h, ok := e.(H); ok {
		return append(list, entry[H]{name, h})
	}
	return list
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	r.workflowStarted = cache(r.workflowStarted, name, e)
	r.stepSubmitted = cache(r.stepSubmitted, name, e)
	r.reconciliationFailed = cache(r.reconciliationFailed, name, e)
	r.workflowCompleted = cache(r.workflowCompleted, name, e)
	r.workflowAbandoned = cache(r.workflowAbandoned, name, e)
	r.willSubmitted = cache(r.willSubmitted, name, e)
	r.submissionFailed = cache(r.submissionFailed, name, e)
	r.notificationSent = cache(r.notificationSent, name, e)
	r.notificationFailed = cache(r.notificationFailed, name, e)
	r.shutdown = cache(r.shutdown, name, e)
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Workflow event emitters
// ──────────────────────────────────────────────────

// EmitWorkflowStarted notifies all extensions that implement WorkflowStarted.
func (r *Registry) EmitWorkflowStarted(ctx context.Context, s *workflow.State) {
	for _, e := range r.workflowStarted {
		if err := e.hook.OnWorkflowStarted(ctx, s); err != nil {
			r.logHookError("OnWorkflowStarted", e.name, err)
		}
	}
}

// EmitStepSubmitted notifies all extensions that implement StepSubmitted.
func (r *Registry) EmitStepSubmitted(ctx context.Context, s *workflow.State, index int) {
	for _, e := range r.stepSubmitted {
		if err := e.hook.OnStepSubmitted(ctx, s, index); err != nil {
			r.logHookError("OnStepSubmitted", e.name, err)
		}
	}
}

// EmitReconciliationFailed notifies all extensions that implement ReconciliationFailed.
func (r *Registry) EmitReconciliationFailed(ctx context.Context, s *workflow.State, total decimal.Decimal) {
	for _, e := range r.reconciliationFailed {
		if err := e.hook.OnReconciliationFailed(ctx, s, total); err != nil {
			r.logHookError("OnReconciliationFailed", e.name, err)
		}
	}
}

// EmitWorkflowCompleted notifies all extensions that implement WorkflowCompleted.
func (r *Registry) EmitWorkflowCompleted(ctx context.Context, s *workflow.State, res *workflow.Result, elapsed time.Duration) {
	for _, e := range r.workflowCompleted {
		if err := e.hook.OnWorkflowCompleted(ctx, s, res, elapsed); err != nil {
			r.logHookError("OnWorkflowCompleted", e.name, err)
		}
	}
}

// EmitWorkflowAbandoned notifies all extensions that implement WorkflowAbandoned.
func (r *Registry) EmitWorkflowAbandoned(ctx context.Context, s *workflow.State) {
	for _, e := range r.workflowAbandoned {
		if err := e.hook.OnWorkflowAbandoned(ctx, s); err != nil {
			r.logHookError("OnWorkflowAbandoned", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Submission event emitters
// ──────────────────────────────────────────────────

// EmitWillSubmitted notifies all extensions that implement WillSubmitted.
func (r *Registry) EmitWillSubmitted(ctx context.Context, sub *submission.Submission) {
	for _, e := range r.willSubmitted {
		if err := e.hook.OnWillSubmitted(ctx, sub); err != nil {
			r.logHookError("OnWillSubmitted", e.name, err)
		}
	}
}

// EmitSubmissionFailed notifies all extensions that implement SubmissionFailed.
func (r *Registry) EmitSubmissionFailed(ctx context.Context, sub *submission.Submission, subErr error) {
	for _, e := range r.submissionFailed {
		if err := e.hook.OnSubmissionFailed(ctx, sub, subErr); err != nil {
			r.logHookError("OnSubmissionFailed", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Notification event emitters
// ──────────────────────────────────────────────────

// EmitNotificationSent notifies all extensions that implement NotificationSent.
func (r *Registry) EmitNotificationSent(ctx context.Context, req *notify.Request, res *notify.Result) {
	for _, e := range r.notificationSent {
		if err := e.hook.OnNotificationSent(ctx, req, res); err != nil {
			r.logHookError("OnNotificationSent", e.name, err)
		}
	}
}

// EmitNotificationFailed notifies all extensions that implement NotificationFailed.
func (r *Registry) EmitNotificationFailed(ctx context.Context, req *notify.Request, sendErr error) {
	for _, e := range r.notificationFailed {
		if err := e.hook.OnNotificationFailed(ctx, req, sendErr); err != nil {
			r.logHookError("OnNotificationFailed", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated to the caller.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
