package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/venu630/bequest/ext"
	"github.com/venu630/bequest/notify"
	"github.com/venu630/bequest/submission"
	"github.com/venu630/bequest/workflow"
)

// Compile-time interface checks.
var (
	_ ext.Extension            = (*Extension)(nil)
	_ ext.WorkflowStarted      = (*Extension)(nil)
	_ ext.StepSubmitted        = (*Extension)(nil)
	_ ext.ReconciliationFailed = (*Extension)(nil)
	_ ext.WorkflowCompleted    = (*Extension)(nil)
	_ ext.WorkflowAbandoned    = (*Extension)(nil)
	_ ext.WillSubmitted        = (*Extension)(nil)
	_ ext.SubmissionFailed     = (*Extension)(nil)
	_ ext.NotificationSent     = (*Extension)(nil)
	_ ext.NotificationFailed   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Workflow lifecycle hooks ────────────────────────

// OnWorkflowStarted implements ext.WorkflowStarted.
func (e *Extension) OnWorkflowStarted(ctx context.Context, s *workflow.State) error {
	return e.record(ctx, ActionWorkflowStarted, SeverityInfo, OutcomeSuccess,
		ResourceSession, s.SessionID.String(), CategoryWorkflow, nil,
		"definition", s.Definition,
		"total_steps", s.Config.TotalSteps,
	)
}

// OnStepSubmitted implements ext.StepSubmitted.
func (e *Extension) OnStepSubmitted(ctx context.Context, s *workflow.State, index int) error {
	return e.record(ctx, ActionStepSubmitted, SeverityInfo, OutcomeSuccess,
		ResourceSession, s.SessionID.String(), CategoryWorkflow, nil,
		"index", index,
		"total_steps", s.Config.TotalSteps,
	)
}

// OnReconciliationFailed implements ext.ReconciliationFailed.
func (e *Extension) OnReconciliationFailed(ctx context.Context, s *workflow.State, total decimal.Decimal) error {
	return e.record(ctx, ActionReconciliationFailed, SeverityWarning, OutcomeFailure,
		ResourceSession, s.SessionID.String(), CategoryWorkflow, nil,
		"actual_total", total.String(),
		"target", s.Config.Target().String(),
	)
}

// OnWorkflowCompleted implements ext.WorkflowCompleted.
func (e *Extension) OnWorkflowCompleted(ctx context.Context, s *workflow.State, res *workflow.Result, elapsed time.Duration) error {
	records := 0
	if res != nil {
		records = len(res.Records)
	}
	return e.record(ctx, ActionWorkflowCompleted, SeverityInfo, OutcomeSuccess,
		ResourceSession, s.SessionID.String(), CategoryWorkflow, nil,
		"definition", s.Definition,
		"records", records,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnWorkflowAbandoned implements ext.WorkflowAbandoned.
func (e *Extension) OnWorkflowAbandoned(ctx context.Context, s *workflow.State) error {
	return e.record(ctx, ActionWorkflowAbandoned, SeverityInfo, OutcomeSuccess,
		ResourceSession, s.SessionID.String(), CategoryWorkflow, nil,
		"index", s.CurrentIndex,
	)
}

// ── Submission hooks ────────────────────────────────

// OnWillSubmitted implements ext.WillSubmitted.
func (e *Extension) OnWillSubmitted(ctx context.Context, sub *submission.Submission) error {
	return e.record(ctx, ActionWillSubmitted, SeverityInfo, OutcomeSuccess,
		ResourceSubmission, sub.ID.String(), CategorySubmission, nil,
		"session_id", sub.SessionID.String(),
		"tx_ref", sub.TxRef,
		"attempts", sub.Attempts,
	)
}

// OnSubmissionFailed implements ext.SubmissionFailed.
func (e *Extension) OnSubmissionFailed(ctx context.Context, sub *submission.Submission, subErr error) error {
	return e.record(ctx, ActionSubmissionFailed, SeverityCritical, OutcomeFailure,
		ResourceSubmission, sub.ID.String(), CategorySubmission, subErr,
		"session_id", sub.SessionID.String(),
		"kind", sub.ErrorKind,
		"attempts", sub.Attempts,
	)
}

// ── Notification hooks ──────────────────────────────

// OnNotificationSent implements ext.NotificationSent.
func (e *Extension) OnNotificationSent(ctx context.Context, req *notify.Request, res *notify.Result) error {
	return e.record(ctx, ActionNotificationSent, SeverityInfo, OutcomeSuccess,
		ResourceNotification, res.MessageID, CategoryNotification, nil,
		"recipient", req.RecipientEmail,
		"transaction_ref", req.TransactionRef,
	)
}

// OnNotificationFailed implements ext.NotificationFailed.
func (e *Extension) OnNotificationFailed(ctx context.Context, req *notify.Request, sendErr error) error {
	return e.record(ctx, ActionNotificationFailed, SeverityCritical, OutcomeFailure,
		ResourceNotification, req.TransactionRef, CategoryNotification, sendErr,
		"recipient", req.RecipientEmail,
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

// ── Slog recorder ───────────────────────────────────

// SlogRecorder writes audit events as structured log records. Critical
// events log at error level, warnings at warn, everything else at info.
type SlogRecorder struct {
	logger *slog.Logger
}

// NewSlogRecorder returns a recorder that logs to l.
func NewSlogRecorder(l *slog.Logger) *SlogRecorder {
	return &SlogRecorder{logger: l.With(slog.String("component", "audit"))}
}

// Record implements Recorder.
func (r *SlogRecorder) Record(ctx context.Context, evt *AuditEvent) error {
	level := slog.LevelInfo
	switch evt.Severity {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityCritical:
		level = slog.LevelError
	}

	keys := make([]string, 0, len(evt.Metadata))
	for k := range evt.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	meta := make([]any, 0, len(keys))
	for _, k := range keys {
		meta = append(meta, slog.Any(k, evt.Metadata[k]))
	}

	r.logger.LogAttrs(ctx, level, evt.Action,
		slog.String("resource", evt.Resource),
		slog.String("resource_id", evt.ResourceID),
		slog.String("category", evt.Category),
		slog.String("outcome", evt.Outcome),
		slog.Group("metadata", meta...),
	)
	return nil
}
