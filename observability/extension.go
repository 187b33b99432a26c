package observability

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/venu630/bequest/ext"
	"github.com/venu630/bequest/notify"
	"github.com/venu630/bequest/submission"
	"github.com/venu630/bequest/workflow"
)

// Compile-time interface checks.
var (
	_ ext.Extension            = (*MetricsExtension)(nil)
	_ ext.WorkflowStarted      = (*MetricsExtension)(nil)
	_ ext.StepSubmitted        = (*MetricsExtension)(nil)
	_ ext.ReconciliationFailed = (*MetricsExtension)(nil)
	_ ext.WorkflowCompleted    = (*MetricsExtension)(nil)
	_ ext.WorkflowAbandoned    = (*MetricsExtension)(nil)
	_ ext.WillSubmitted        = (*MetricsExtension)(nil)
	_ ext.SubmissionFailed     = (*MetricsExtension)(nil)
	_ ext.NotificationSent     = (*MetricsExtension)(nil)
	_ ext.NotificationFailed   = (*MetricsExtension)(nil)
)

// MetricsExtension records lifecycle metrics through an OpenTelemetry
// meter. Register it as an extension to track session starts, step
// submissions, reconciliation failures, completions, ledger outcomes and
// notification outcomes.
type MetricsExtension struct {
	WorkflowStarted      metric.Int64Counter
	StepSubmitted        metric.Int64Counter
	ReconciliationFailed metric.Int64Counter
	WorkflowCompleted    metric.Int64Counter
	WorkflowAbandoned    metric.Int64Counter
	WorkflowDuration     metric.Float64Histogram
	WillSubmitted        metric.Int64Counter
	SubmissionFailed     metric.Int64Counter
	NotificationSent     metric.Int64Counter
	NotificationFailed   metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension on the global meter provider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter("github.com/venu630/bequest/observability"))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided
// meter. Use this in tests with an sdk/metric ManualReader.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	counter := func(name, desc string) metric.Int64Counter {
		c, _ := meter.Int64Counter(name, metric.WithDescription(desc)) //nolint:errcheck // noop on error
		return c
	}
	duration, _ := meter.Float64Histogram("bequest.workflow.duration", //nolint:errcheck // noop on error
		metric.WithDescription("Time from session start to successful reconciliation"),
		metric.WithUnit("s"),
	)

	return &MetricsExtension{
		WorkflowStarted:      counter("bequest.workflow.started", "Allocation sessions started"),
		StepSubmitted:        counter("bequest.step.submitted", "Step records persisted"),
		ReconciliationFailed: counter("bequest.reconciliation.failed", "Final submits whose shares missed the target"),
		WorkflowCompleted:    counter("bequest.workflow.completed", "Sessions that reconciled"),
		WorkflowAbandoned:    counter("bequest.workflow.abandoned", "Sessions abandoned"),
		WorkflowDuration:     duration,
		WillSubmitted:        counter("bequest.will.submitted", "Allocations accepted by the ledger"),
		SubmissionFailed:     counter("bequest.submission.failed", "Ledger calls that failed"),
		NotificationSent:     counter("bequest.notification.sent", "Notifications delivered"),
		NotificationFailed:   counter("bequest.notification.failed", "Notifications not delivered"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Workflow lifecycle hooks ────────────────────────

// OnWorkflowStarted implements ext.WorkflowStarted.
func (m *MetricsExtension) OnWorkflowStarted(ctx context.Context, s *workflow.State) error {
	m.WorkflowStarted.Add(ctx, 1, definitionAttr(s))
	return nil
}

// OnStepSubmitted implements ext.StepSubmitted.
func (m *MetricsExtension) OnStepSubmitted(ctx context.Context, s *workflow.State, _ int) error {
	m.StepSubmitted.Add(ctx, 1, definitionAttr(s))
	return nil
}

// OnReconciliationFailed implements ext.ReconciliationFailed.
func (m *MetricsExtension) OnReconciliationFailed(ctx context.Context, s *workflow.State, _ decimal.Decimal) error {
	m.ReconciliationFailed.Add(ctx, 1, definitionAttr(s))
	return nil
}

// OnWorkflowCompleted implements ext.WorkflowCompleted.
func (m *MetricsExtension) OnWorkflowCompleted(ctx context.Context, s *workflow.State, _ *workflow.Result, elapsed time.Duration) error {
	m.WorkflowCompleted.Add(ctx, 1, definitionAttr(s))
	m.WorkflowDuration.Record(ctx, elapsed.Seconds(), definitionAttr(s))
	return nil
}

// OnWorkflowAbandoned implements ext.WorkflowAbandoned.
func (m *MetricsExtension) OnWorkflowAbandoned(ctx context.Context, s *workflow.State) error {
	m.WorkflowAbandoned.Add(ctx, 1, definitionAttr(s))
	return nil
}

// ── Submission hooks ────────────────────────────────

// OnWillSubmitted implements ext.WillSubmitted.
func (m *MetricsExtension) OnWillSubmitted(ctx context.Context, _ *submission.Submission) error {
	m.WillSubmitted.Add(ctx, 1)
	return nil
}

// OnSubmissionFailed implements ext.SubmissionFailed.
func (m *MetricsExtension) OnSubmissionFailed(ctx context.Context, sub *submission.Submission, _ error) error {
	m.SubmissionFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", sub.ErrorKind)))
	return nil
}

// ── Notification hooks ──────────────────────────────

// OnNotificationSent implements ext.NotificationSent.
func (m *MetricsExtension) OnNotificationSent(ctx context.Context, _ *notify.Request, _ *notify.Result) error {
	m.NotificationSent.Add(ctx, 1)
	return nil
}

// OnNotificationFailed implements ext.NotificationFailed.
func (m *MetricsExtension) OnNotificationFailed(ctx context.Context, _ *notify.Request, _ error) error {
	m.NotificationFailed.Add(ctx, 1)
	return nil
}

func definitionAttr(s *workflow.State) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("definition", s.Definition))
}
