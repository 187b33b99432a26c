package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/id"
	mw "github.com/venu630/bequest/middleware"
	"github.com/venu630/bequest/submission"
	"github.com/venu630/bequest/workflow"
)

// Session is what every workflow operation hands back to the surface.
type Session struct {
	State *workflow.State `json:"session"`

	// Stored is the record persisted for the active step. It is empty
	// until the step is submitted, so after stepping back the surface can
	// refill the form from it.
	Stored *workflow.Record `json:"stored,omitempty"`

	// Result and Submission are set once the workflow completes.
	Result     *workflow.Result       `json:"result,omitempty"`
	Submission *submission.Submission `json:"submission,omitempty"`
}

// StartParams selects the workflow to start.
type StartParams struct {
	// Definition names the workflow. Empty means the beneficiary workflow.
	Definition string

	// Count is the raw step count chosen on the previous page.
	Count string

	// Owner is the wallet address of the will owner, if known.
	Owner string
}

// Start begins a session. The step count must parse as an integer between
// 1 and the configured maximum.
func (eng *Engine) Start(ctx context.Context, p StartParams) (*Session, error) {
	var sess *Session
	err := eng.run(ctx, &mw.Operation{Name: "workflow.start"}, func(ctx context.Context) error {
		name := p.Definition
		if name == "" {
			name = workflow.BeneficiariesName
		}
		def, ok := eng.definitions.Get(name)
		if !ok {
			return fmt.Errorf("%w: %s", bequest.ErrDefinitionNotFound, name)
		}

		n, err := workflow.ParseStepCount(p.Count)
		if err != nil {
			return err
		}
		if limit := eng.c.Config().MaxBeneficiaries; n > limit {
			return &workflow.ConfigError{Reason: fmt.Sprintf("step count must be at most %d, got %d", limit, n)}
		}

		ctrl, err := workflow.Start(ctx, eng.steps, def.Config(n), eng.controllerOpts(def)...)
		if err != nil {
			return err
		}

		st := ctrl.State()
		st.Owner = p.Owner
		if err := eng.states.CreateState(ctx, st); err != nil {
			_ = eng.steps.ClearSteps(ctx, st.SessionID) //nolint:errcheck // best effort, the session was never created
			return fmt.Errorf("create session: %w", err)
		}
		sess = &Session{State: st}
		return nil
	})
	return sess, err
}

// Get returns the session with the stored record of its active step.
func (eng *Engine) Get(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	var sess *Session
	err := eng.withSession(ctx, "workflow.get", sessionID, func(ctx context.Context, ctrl *workflow.Controller) error {
		var err error
		sess, err = eng.view(ctx, ctrl)
		return err
	})
	return sess, err
}

// Update validates fields against the session's schema and caches them as
// the active draft. Field errors are returned in the draft, not as an
// error.
func (eng *Engine) Update(ctx context.Context, sessionID id.SessionID, fields map[string]string) (*Session, error) {
	var sess *Session
	err := eng.withSession(ctx, "workflow.update", sessionID, func(ctx context.Context, ctrl *workflow.Controller) error {
		if _, err := ctrl.UpdateCurrentStepFields(fields); err != nil {
			return err
		}
		if err := eng.save(ctx, ctrl); err != nil {
			return err
		}
		sess = &Session{State: ctrl.State()}
		return nil
	})
	return sess, err
}

// Submit persists the active draft and advances. Submitting the last step
// reconciles the shares; on success the allocations go to the ledger and
// the returned session carries the result and the submission. When the
// ledger call fails the completed session is still returned alongside the
// ledger error, and the submission can be retried with Resubmit.
func (eng *Engine) Submit(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	var (
		sess      *Session
		ledgerErr error
	)
	err := eng.withSession(ctx, "workflow.submit", sessionID, func(ctx context.Context, ctrl *workflow.Controller) error {
		res, err := ctrl.SubmitCurrent(ctx)
		if err != nil {
			var recErr *workflow.ReconciliationError
			if errors.As(err, &recErr) {
				if saveErr := eng.save(ctx, ctrl); saveErr != nil {
					return saveErr
				}
			}
			return err
		}
		if err := eng.save(ctx, ctrl); err != nil {
			return err
		}
		if res == nil {
			sess, err = eng.view(ctx, ctrl)
			return err
		}

		st := ctrl.State()
		sub, err := eng.submitWill(ctx, st, res)
		if sub == nil {
			return err
		}
		ledgerErr = err
		sess = &Session{State: st, Result: res, Submission: sub}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, ledgerErr
}

// Previous steps back one step. At the first step it fails with
// bequest.ErrAtBoundary, which the surface treats as leaving the workflow.
func (eng *Engine) Previous(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	var sess *Session
	err := eng.withSession(ctx, "workflow.previous", sessionID, func(ctx context.Context, ctrl *workflow.Controller) error {
		if err := ctrl.GoToPrevious(ctx); err != nil {
			return err
		}
		if err := eng.save(ctx, ctrl); err != nil {
			return err
		}
		var err error
		sess, err = eng.view(ctx, ctrl)
		return err
	})
	return sess, err
}

// Abandon ends the session and discards its records.
func (eng *Engine) Abandon(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	var sess *Session
	err := eng.withSession(ctx, "workflow.abandon", sessionID, func(ctx context.Context, ctrl *workflow.Controller) error {
		if err := ctrl.Abandon(ctx); err != nil {
			return err
		}
		if err := eng.save(ctx, ctrl); err != nil {
			return err
		}
		sess = &Session{State: ctrl.State()}
		return nil
	})
	return sess, err
}

// ListSessions returns sessions matching opts, newest first.
func (eng *Engine) ListSessions(ctx context.Context, opts workflow.ListOpts) ([]*workflow.State, error) {
	return eng.states.ListStates(ctx, opts)
}

func (eng *Engine) controllerOpts(def *workflow.Definition) []workflow.ControllerOption {
	return []workflow.ControllerOption{
		workflow.WithDefinition(def),
		workflow.WithEmitter(eng.extensions),
		workflow.WithLogger(eng.logger),
	}
}

// withSession loads the session under its lock and runs fn as the named
// operation.
func (eng *Engine) withSession(ctx context.Context, name string, sessionID id.SessionID, fn func(context.Context, *workflow.Controller) error) error {
	op := &mw.Operation{Name: name, SessionID: sessionID.String()}
	return eng.run(ctx, op, func(ctx context.Context) error {
		unlock := eng.locks.lock(sessionID.String())
		defer unlock()

		ctrl, err := eng.load(ctx, sessionID)
		if err != nil {
			return err
		}
		return fn(ctx, ctrl)
	})
}

func (eng *Engine) load(ctx context.Context, sessionID id.SessionID) (*workflow.Controller, error) {
	st, err := eng.states.GetState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	def, ok := eng.definitions.GetVersion(st.Definition, st.Version)
	if !ok {
		return nil, fmt.Errorf("%w: %s v%d", bequest.ErrDefinitionNotFound, st.Definition, st.Version)
	}
	return workflow.Restore(eng.steps, st, eng.controllerOpts(def)...)
}

func (eng *Engine) save(ctx context.Context, ctrl *workflow.Controller) error {
	if err := eng.states.UpdateState(ctx, ctrl.State()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (eng *Engine) view(ctx context.Context, ctrl *workflow.Controller) (*Session, error) {
	sess := &Session{State: ctrl.State()}
	if ctrl.RunState().Terminal() {
		return sess, nil
	}
	stored, err := ctrl.Stored(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored step: %w", err)
	}
	sess.Stored = stored
	return sess, nil
}
