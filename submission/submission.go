// Package submission records the hand-off of a finished allocation to the
// ledger. A submission is created when a workflow completes and keeps the
// reconciled result so that a failed ledger call can be retried by hand.
// Nothing retries a submission automatically.
package submission

import (
	"context"
	"time"

	"github.com/venu630/bequest/id"
	"github.com/venu630/bequest/reconcile"
)

// State is the lifecycle state of a submission.
type State string

const (
	// StatePending means the ledger has not been called yet.
	StatePending State = "pending"
	// StateSubmitted means the ledger accepted the allocation.
	StateSubmitted State = "submitted"
	// StateFailed means the last ledger call failed. It can be resubmitted.
	StateFailed State = "failed"
)

// Submission is one finalized allocation and its ledger outcome.
type Submission struct {
	ID        id.SubmissionID   `json:"id"`
	SessionID id.SessionID      `json:"session_id"`
	Owner     string            `json:"owner,omitempty"`
	Result    *reconcile.Result `json:"result"`
	State     State             `json:"state"`
	TxRef     string            `json:"tx_ref,omitempty"`
	Error     string            `json:"error,omitempty"`
	ErrorKind string            `json:"error_kind,omitempty"`
	Attempts  int               `json:"attempts"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ListOpts controls pagination for submission list queries.
type ListOpts struct {
	// Limit is the maximum number of submissions to return. Zero means no limit.
	Limit int
	// Offset is the number of submissions to skip.
	Offset int
	// State filters by state. Empty means all states.
	State State
}

// Store defines the persistence contract for submissions.
type Store interface {
	// CreateSubmission persists a new submission.
	CreateSubmission(ctx context.Context, s *Submission) error

	// GetSubmission retrieves a submission by ID.
	GetSubmission(ctx context.Context, subID id.SubmissionID) (*Submission, error)

	// UpdateSubmission persists changes to an existing submission.
	UpdateSubmission(ctx context.Context, s *Submission) error

	// ListSubmissions returns submissions matching opts, newest first.
	ListSubmissions(ctx context.Context, opts ListOpts) ([]*Submission, error)
}
