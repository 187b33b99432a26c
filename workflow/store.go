package workflow

import (
	"context"
	"maps"
	"time"

	"github.com/venu630/bequest/id"
	"github.com/venu630/bequest/reconcile"
	"github.com/venu630/bequest/step"
	"github.com/venu630/bequest/validate"
)

// Record is a persisted step.
type Record = step.Record

// Result is the outcome of a finished workflow.
type Result = reconcile.Result

// StepStore persists step records for a session.
type StepStore = step.Store

// RunState represents the lifecycle state of a workflow session.
type RunState string

const (
	// RunStateActive means the session is accepting steps.
	RunStateActive RunState = "active"
	// RunStateCompleted means every step was submitted and the shares
	// reconciled.
	RunStateCompleted RunState = "completed"
	// RunStateAbandoned means the user left the workflow.
	RunStateAbandoned RunState = "abandoned"
)

// Terminal reports whether no further operation is accepted.
func (s RunState) Terminal() bool {
	return s == RunStateCompleted || s == RunStateAbandoned
}

// Draft is the in-progress data of the active step. It is never written to
// the step store until the step is submitted.
type Draft struct {
	Fields step.Fields     `json:"fields"`
	Valid  bool            `json:"valid"`
	Errors validate.Errors `json:"errors,omitempty"`
}

// State is the serialisable state of one workflow session. Step records
// live in the StepStore, not here.
type State struct {
	SessionID    id.SessionID `json:"id"`
	Definition   string       `json:"definition"`
	Version      int          `json:"version"`
	Owner        string       `json:"owner,omitempty"`
	Config       Config       `json:"config"`
	CurrentIndex int          `json:"current_index"`
	RunState     RunState     `json:"state"`
	Draft        Draft        `json:"draft"`
	StartedAt    time.Time    `json:"started_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	out := *s
	out.Draft.Fields = s.Draft.Fields.Clone()
	if s.Draft.Errors != nil {
		out.Draft.Errors = maps.Clone(s.Draft.Errors)
	}
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		out.FinishedAt = &t
	}
	return &out
}

// ListOpts controls pagination for session list queries.
type ListOpts struct {
	// Limit is the maximum number of sessions to return. Zero means no limit.
	Limit int
	// Offset is the number of sessions to skip.
	Offset int
	// State filters by run state. Empty means all states.
	State RunState
}

// StateStore defines the persistence contract for session state.
type StateStore interface {
	// CreateState persists a new session. It fails with
	// bequest.ErrSessionExists when the ID is taken.
	CreateState(ctx context.Context, s *State) error

	// GetState retrieves a session by ID, or bequest.ErrSessionNotFound.
	GetState(ctx context.Context, sessionID id.SessionID) (*State, error)

	// UpdateState persists changes to an existing session.
	UpdateState(ctx context.Context, s *State) error

	// DeleteState removes a session. Deleting a missing session is not
	// an error.
	DeleteState(ctx context.Context, sessionID id.SessionID) error

	// ListStates returns sessions matching opts, newest first.
	ListStates(ctx context.Context, opts ListOpts) ([]*State, error)
}
