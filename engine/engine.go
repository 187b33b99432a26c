package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/event"
	"github.com/venu630/bequest/ext"
	"github.com/venu630/bequest/ledger"
	mw "github.com/venu630/bequest/middleware"
	"github.com/venu630/bequest/notify"
	"github.com/venu630/bequest/observability"
	"github.com/venu630/bequest/pin"
	"github.com/venu630/bequest/step"
	"github.com/venu630/bequest/submission"
	"github.com/venu630/bequest/workflow"
)

const instrumentationName = "github.com/venu630/bequest"

// DefaultPinConcurrency bounds parallel uploads in PinDocuments.
const DefaultPinConcurrency = 4

// Engine wraps a Coordinator with typed subsystem access.
// Use Build() to create one from a Coordinator.
type Engine struct {
	c          *bequest.Coordinator
	extensions *ext.Registry
	mws        []mw.Middleware
	chain      mw.Middleware
	logger     *slog.Logger
	locks      *sessionLocks

	// Persistence.
	steps       step.Store
	states      workflow.StateStore
	submissions submission.Store
	eventBus    *event.Bus

	// Workflow definitions.
	definitions *workflow.Registry
	custom      []*workflow.Definition

	// Collaborators; nil means not configured.
	ledger ledger.Ledger
	pinner pin.Pinner
	sender notify.Sender

	opTimeout      time.Duration
	pinConcurrency int
	now            func() time.Time

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) {
		eng.extensions.Register(e)
	}
}

// WithMiddleware adds middleware to the engine's chain.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, m)
	}
}

// WithDefinition registers a workflow definition in addition to the
// built-in beneficiary workflow.
func WithDefinition(def *workflow.Definition) Option {
	return func(eng *Engine) {
		eng.custom = append(eng.custom, def)
	}
}

// WithLedger sets the ledger that completed allocations are submitted to.
func WithLedger(l ledger.Ledger) Option {
	return func(eng *Engine) {
		eng.ledger = l
	}
}

// WithPinner sets the document-pinning gateway.
func WithPinner(p pin.Pinner) Option {
	return func(eng *Engine) {
		eng.pinner = p
	}
}

// WithSender sets the notification sender.
func WithSender(s notify.Sender) Option {
	return func(eng *Engine) {
		eng.sender = s
	}
}

// WithOperationTimeout bounds every call made to a collaborator. Zero
// leaves them unbounded.
func WithOperationTimeout(d time.Duration) Option {
	return func(eng *Engine) {
		eng.opTimeout = d
	}
}

// WithPinConcurrency bounds parallel uploads in PinDocuments.
func WithPinConcurrency(n int) Option {
	return func(eng *Engine) {
		if n > 0 {
			eng.pinConcurrency = n
		}
	}
}

// WithClock overrides the time source used for submission timestamps.
func WithClock(now func() time.Time) Option {
	return func(eng *Engine) {
		eng.now = now
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// When set, both the metrics middleware and the observability extension
// use this provider instead of the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

// Build creates an Engine from an existing Coordinator. The Coordinator's
// store must implement the step, state, submission and event contracts.
func Build(c *bequest.Coordinator, opts ...Option) (*Engine, error) {
	logger := c.Logger()
	store := c.Store()

	if store == nil {
		return nil, bequest.ErrNoStore
	}

	ss, ok := store.(step.Store)
	if !ok {
		return nil, fmt.Errorf("bequest: store does not implement step.Store")
	}

	ws, ok := store.(workflow.StateStore)
	if !ok {
		return nil, fmt.Errorf("bequest: store does not implement workflow.StateStore")
	}

	subs, ok := store.(submission.Store)
	if !ok {
		return nil, fmt.Errorf("bequest: store does not implement submission.Store")
	}

	es, ok := store.(event.Store)
	if !ok {
		return nil, fmt.Errorf("bequest: store does not implement event.Store")
	}

	eng := &Engine{
		c:              c,
		extensions:     ext.NewRegistry(logger),
		logger:         logger,
		locks:          newSessionLocks(),
		steps:          ss,
		states:         ws,
		submissions:    subs,
		eventBus:       event.NewBus(es, event.WithSource("engine")),
		definitions:    workflow.NewRegistry(),
		pinConcurrency: DefaultPinConcurrency,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(eng)
	}

	builtin := workflow.Beneficiaries()
	builtin.TargetSum = decimal.NewFromInt(c.Config().TargetSum)
	eng.definitions.Register(builtin)
	for _, def := range eng.custom {
		eng.definitions.Register(def)
	}

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer(instrumentationName))
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter(instrumentationName))
	} else {
		metricsMw = mw.Metrics()
	}

	// Register the observability metrics extension.
	var obsExt *observability.MetricsExtension
	if eng.meterProvider != nil {
		obsExt = observability.NewMetricsExtensionWithMeter(eng.meterProvider.Meter(instrumentationName + "/observability"))
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)

	// Default middleware stack: recover → tracing → metrics → logging → timeout.
	defaultMws := []mw.Middleware{
		mw.Recover(logger),
		tracingMw,
		metricsMw,
		mw.Logging(logger),
		mw.Timeout(),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)
	eng.chain = mw.Chain(allMws...)

	c.SetExtensions(eng.extensions)

	return eng, nil
}

// run passes fn through the middleware chain as the named operation.
func (eng *Engine) run(ctx context.Context, op *mw.Operation, fn mw.Handler) error {
	return eng.chain(ctx, op, fn)
}

// collaboratorOp describes a call that leaves the process and is bounded
// by the operation timeout.
func (eng *Engine) collaboratorOp(name, sessionID string) *mw.Operation {
	return &mw.Operation{Name: name, SessionID: sessionID, Timeout: eng.opTimeout}
}

// Stop notifies extensions of shutdown and closes the store.
func (eng *Engine) Stop(ctx context.Context) error {
	return eng.c.Stop(ctx)
}

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Definitions returns the workflow definition registry.
func (eng *Engine) Definitions() *workflow.Registry { return eng.definitions }

// Coordinator returns the underlying Coordinator.
func (eng *Engine) Coordinator() *bequest.Coordinator { return eng.c }

// EventBus returns the event bus.
func (eng *Engine) EventBus() *event.Bus { return eng.eventBus }

// Ping checks the store.
func (eng *Engine) Ping(ctx context.Context) error {
	return eng.c.Store().Ping(ctx)
}
