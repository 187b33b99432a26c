package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/id"
	"github.com/venu630/bequest/reconcile"
	"github.com/venu630/bequest/step"
	"github.com/venu630/bequest/validate"
)

// Controller is the state machine over one workflow session. A Controller
// is not safe for concurrent use; callers serialise operations on the same
// session.
type Controller struct {
	state   *State
	steps   *step.Scoped
	schema  *validate.Schema
	emitter Emitter
	logger  *slog.Logger
	now     func() time.Time
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithSchema validates drafts passed to UpdateCurrentStepFields.
func WithSchema(s *validate.Schema) ControllerOption {
	return func(c *Controller) { c.schema = s }
}

// WithEmitter sets the lifecycle emitter.
func WithEmitter(e Emitter) ControllerOption {
	return func(c *Controller) {
		if e != nil {
			c.emitter = e
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// WithDefinition records def's name and version on new sessions and uses
// its schema.
func WithDefinition(def *Definition) ControllerOption {
	return func(c *Controller) {
		c.schema = def.Schema
		if c.state != nil && c.state.Definition == "" {
			c.state.Definition = def.Name
			c.state.Version = max(def.Version, 1)
		}
	}
}

func newController(steps step.Store, st *State, opts []ControllerOption) *Controller {
	c := &Controller{
		state:   st,
		emitter: nopEmitter{},
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.steps = step.NewScoped(steps, st.SessionID, st.Config.TotalSteps)
	return c
}

// Start begins a new session at step 1, whose record is created empty. It
// fails with a *ConfigError when cfg cannot start a workflow.
func Start(ctx context.Context, steps step.Store, cfg Config, opts ...ControllerOption) (*Controller, error) {
	if steps == nil {
		return nil, bequest.ErrNoStore
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st := &State{
		SessionID:    id.NewSessionID(),
		Config:       cfg,
		CurrentIndex: 1,
		RunState:     RunStateActive,
		Draft:        Draft{Fields: step.Fields{}},
	}
	c := newController(steps, st, opts)
	now := c.now().UTC()
	st.StartedAt = now
	st.UpdatedAt = now
	if err := c.visit(ctx, 1); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "workflow started",
		slog.String("session_id", st.SessionID.String()),
		slog.String("definition", st.Definition),
		slog.Int("total_steps", cfg.TotalSteps),
	)
	c.emitter.EmitWorkflowStarted(ctx, st.Clone())
	return c, nil
}

// Restore rebuilds a controller from persisted state.
func Restore(steps step.Store, st *State, opts ...ControllerOption) (*Controller, error) {
	if steps == nil {
		return nil, bequest.ErrNoStore
	}
	if err := st.Config.Validate(); err != nil {
		return nil, err
	}
	if st.CurrentIndex < 1 || st.CurrentIndex > st.Config.TotalSteps {
		return nil, fmt.Errorf("%w: index %d of %d steps", bequest.ErrInvalidState, st.CurrentIndex, st.Config.TotalSteps)
	}
	st = st.Clone()
	if st.Draft.Fields == nil {
		st.Draft.Fields = step.Fields{}
	}
	return newController(steps, st, opts), nil
}

// State returns a copy of the session state.
func (c *Controller) State() *State { return c.state.Clone() }

// SessionID returns the session identifier.
func (c *Controller) SessionID() id.SessionID { return c.state.SessionID }

// CurrentIndex returns the 1-based active step.
func (c *Controller) CurrentIndex() int { return c.state.CurrentIndex }

// TotalSteps returns the number of steps.
func (c *Controller) TotalSteps() int { return c.state.Config.TotalSteps }

// RunState returns the lifecycle state.
func (c *Controller) RunState() RunState { return c.state.RunState }

// Stored returns the record persisted for the active step. It stays empty
// and invalid until the step is submitted. Going back to a step keeps its
// record; the surface decides whether to show it.
func (c *Controller) Stored(ctx context.Context) (*Record, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	return c.steps.Get(ctx, c.state.CurrentIndex)
}

// Records returns every persisted record ordered by index.
func (c *Controller) Records(ctx context.Context) ([]Record, error) {
	all, err := c.steps.All(ctx)
	if err != nil {
		return nil, err
	}
	return step.Ordered(all), nil
}

// UpdateCurrentStep caches fields and their validity for the active step.
// Nothing is persisted and the index does not move.
func (c *Controller) UpdateCurrentStep(fields map[string]string, valid bool) error {
	if err := c.open(); err != nil {
		return err
	}
	c.state.Draft = Draft{Fields: step.Fields(fields).Clone(), Valid: valid}
	c.touch()
	return nil
}

// UpdateCurrentStepFields validates fields against the schema and caches
// the draft with the computed validity. The field errors are returned so
// the surface can render them. Without a schema every draft is valid.
func (c *Controller) UpdateCurrentStepFields(fields map[string]string) (validate.Errors, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	errs := c.schema.Validate(fields)
	c.state.Draft = Draft{
		Fields: step.Fields(fields).Clone(),
		Valid:  errs.Valid(),
		Errors: errs,
	}
	c.touch()
	return errs, nil
}

// SubmitCurrent persists the active draft. Before the last step it
// advances the index and returns (nil, nil). On the last step it
// reconciles every record: a match completes the workflow, clears the
// store and returns the Result; a mismatch returns a *ReconciliationError
// and leaves the records and index unchanged.
func (c *Controller) SubmitCurrent(ctx context.Context) (*Result, error) {
	if err := c.open(); err != nil {
		return nil, err
	}

	st := c.state
	if !st.Draft.Valid {
		return nil, &ValidationError{Index: st.CurrentIndex, Fields: st.Draft.Errors}
	}

	if err := c.steps.Put(ctx, st.CurrentIndex, st.Draft.Fields, true); err != nil {
		return nil, fmt.Errorf("store step %d: %w", st.CurrentIndex, err)
	}
	c.emitter.EmitStepSubmitted(ctx, st.Clone(), st.CurrentIndex)

	if st.CurrentIndex < st.Config.TotalSteps {
		if err := c.visit(ctx, st.CurrentIndex+1); err != nil {
			return nil, err
		}
		st.CurrentIndex++
		st.Draft = Draft{Fields: step.Fields{}}
		c.touch()
		c.logger.DebugContext(ctx, "workflow step submitted",
			slog.String("session_id", st.SessionID.String()),
			slog.Int("next_index", st.CurrentIndex),
		)
		return nil, nil
	}

	return c.finalize(ctx)
}

func (c *Controller) finalize(ctx context.Context) (*Result, error) {
	st := c.state
	records, err := c.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	target := st.Config.Target()
	res := reconcile.Reconcile(records, st.Config.ShareField, target)
	c.touch()
	if !res.Success {
		c.logger.InfoContext(ctx, "workflow reconciliation failed",
			slog.String("session_id", st.SessionID.String()),
			slog.String("total", res.Total.String()),
		)
		c.emitter.EmitReconciliationFailed(ctx, st.Clone(), res.Total)
		return nil, &ReconciliationError{ActualTotal: res.Total, Target: target}
	}

	c.finish(RunStateCompleted)
	if err := c.steps.Clear(ctx); err != nil {
		c.logger.WarnContext(ctx, "failed to clear completed workflow steps",
			slog.String("session_id", st.SessionID.String()),
			slog.String("error", err.Error()),
		)
	}

	c.logger.InfoContext(ctx, "workflow completed",
		slog.String("session_id", st.SessionID.String()),
		slog.Int("records", len(res.Records)),
	)
	c.emitter.EmitWorkflowCompleted(ctx, st.Clone(), res, st.FinishedAt.Sub(st.StartedAt))
	return res, nil
}

// GoToPrevious moves to the previous step and resets the draft. Stored
// records are kept. At step 1 it fails with bequest.ErrAtBoundary, which the
// surface treats as a request to leave the workflow.
func (c *Controller) GoToPrevious(ctx context.Context) error {
	if err := c.open(); err != nil {
		return err
	}
	if c.state.CurrentIndex <= 1 {
		return bequest.ErrAtBoundary
	}
	c.state.CurrentIndex--
	c.state.Draft = Draft{Fields: step.Fields{}}
	c.touch()
	c.logger.DebugContext(ctx, "workflow stepped back",
		slog.String("session_id", c.state.SessionID.String()),
		slog.Int("index", c.state.CurrentIndex),
	)
	return nil
}

// Abandon ends the session and clears its records.
func (c *Controller) Abandon(ctx context.Context) error {
	if err := c.open(); err != nil {
		return err
	}
	if err := c.steps.Clear(ctx); err != nil {
		return fmt.Errorf("clear steps: %w", err)
	}
	c.finish(RunStateAbandoned)
	c.logger.InfoContext(ctx, "workflow abandoned",
		slog.String("session_id", c.state.SessionID.String()),
	)
	c.emitter.EmitWorkflowAbandoned(ctx, c.state.Clone())
	return nil
}

// visit creates the empty record of step index unless it already has one.
func (c *Controller) visit(ctx context.Context, index int) error {
	rec, err := c.steps.Get(ctx, index)
	if err != nil {
		return fmt.Errorf("load step %d: %w", index, err)
	}
	if rec != nil {
		return nil
	}
	if err := c.steps.Put(ctx, index, step.Fields{}, false); err != nil {
		return fmt.Errorf("store step %d: %w", index, err)
	}
	return nil
}

func (c *Controller) open() error {
	if c.state.RunState.Terminal() {
		return fmt.Errorf("%w: session %s is %s", bequest.ErrWorkflowClosed, c.state.SessionID, c.state.RunState)
	}
	return nil
}

func (c *Controller) touch() {
	c.state.UpdatedAt = c.now().UTC()
}

func (c *Controller) finish(rs RunState) {
	now := c.now().UTC()
	c.state.RunState = rs
	c.state.Draft = Draft{Fields: step.Fields{}}
	c.state.UpdatedAt = now
	c.state.FinishedAt = &now
}
