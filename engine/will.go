package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/event"
	"github.com/venu630/bequest/id"
	"github.com/venu630/bequest/ledger"
	"github.com/venu630/bequest/submission"
	"github.com/venu630/bequest/validate"
	"github.com/venu630/bequest/workflow"
)

// WillStatus reports whether an owner has a will.
type WillStatus struct {
	Owner  string       `json:"owner"`
	Exists bool         `json:"exists"`
	TxRef  ledger.TxRef `json:"txRef,omitempty"`
}

// WillParams is the owner form.
type WillParams struct {
	Owner            string
	FirstName        string
	LastName         string
	BeneficiaryCount string
}

func (p WillParams) fields() map[string]string {
	return map[string]string{
		validate.FieldWalletAddress:    p.Owner,
		validate.FieldFirstName:        p.FirstName,
		validate.FieldLastName:         p.LastName,
		validate.FieldBeneficiaryCount: p.BeneficiaryCount,
	}
}

// Submission returns a will submission by ID.
func (eng *Engine) Submission(ctx context.Context, subID id.SubmissionID) (*submission.Submission, error) {
	return eng.submissions.GetSubmission(ctx, subID)
}

// ListSubmissions returns submissions matching opts, newest first.
func (eng *Engine) ListSubmissions(ctx context.Context, opts submission.ListOpts) ([]*submission.Submission, error) {
	return eng.submissions.ListSubmissions(ctx, opts)
}

// Resubmit sends a failed or pending submission to the ledger again. It
// is only ever called on request; failed submissions are never retried
// automatically.
func (eng *Engine) Resubmit(ctx context.Context, subID id.SubmissionID) (*submission.Submission, error) {
	var out *submission.Submission
	err := eng.run(ctx, eng.collaboratorOp("will.resubmit", ""), func(ctx context.Context) error {
		if eng.ledger == nil {
			return fmt.Errorf("%w: ledger", bequest.ErrCollaboratorAbsent)
		}

		unlock := eng.locks.lock(subID.String())
		defer unlock()

		sub, err := eng.submissions.GetSubmission(ctx, subID)
		if err != nil {
			return err
		}
		if sub.State == submission.StateSubmitted {
			return fmt.Errorf("%w: submission %s is already submitted", bequest.ErrInvalidState, subID)
		}
		out, err = eng.deliver(ctx, sub)
		return err
	})
	return out, err
}

// Will reports whether owner has a will and, if so, the transaction that
// created it.
func (eng *Engine) Will(ctx context.Context, owner string) (*WillStatus, error) {
	var status *WillStatus
	err := eng.run(ctx, eng.collaboratorOp("will.get", ""), func(ctx context.Context) error {
		if eng.ledger == nil {
			return fmt.Errorf("%w: ledger", bequest.ErrCollaboratorAbsent)
		}
		exists, err := eng.ledger.HasWill(ctx, owner)
		if err != nil {
			return err
		}
		status = &WillStatus{Owner: owner, Exists: exists}
		if !exists {
			return nil
		}
		status.TxRef, err = eng.ledger.WillTransaction(ctx, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

// CreateWill validates the owner form and creates the owner's will with
// the configured deposit.
func (eng *Engine) CreateWill(ctx context.Context, p WillParams) (*WillStatus, error) {
	var status *WillStatus
	err := eng.run(ctx, eng.collaboratorOp("will.create", ""), func(ctx context.Context) error {
		if errs := eng.ownerSchema().Validate(p.fields()); !errs.Valid() {
			return &workflow.ValidationError{Fields: errs}
		}
		if eng.ledger == nil {
			return fmt.Errorf("%w: ledger", bequest.ErrCollaboratorAbsent)
		}
		deposit, err := decimal.NewFromString(eng.c.Config().Ledger.WillDeposit)
		if err != nil {
			return fmt.Errorf("%w: will deposit %q: %v", bequest.ErrConfig, eng.c.Config().Ledger.WillDeposit, err)
		}

		tx, err := eng.ledger.CreateWill(ctx, ledger.Will{
			Owner:     p.Owner,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Deposit:   deposit,
		})
		if err != nil {
			return err
		}
		eng.logger.InfoContext(ctx, "will created",
			slog.String("owner", p.Owner),
			slog.String("tx_ref", string(tx)),
		)
		status = &WillStatus{Owner: p.Owner, Exists: true, TxRef: tx}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (eng *Engine) ownerSchema() *validate.Schema {
	return validate.OwnerSchema(eng.c.Config().MaxBeneficiaries).
		With(validate.Address(validate.FieldWalletAddress, "Wallet Address"))
}

// submitWill records a submission for a completed workflow and sends it to
// the ledger. The submission is returned whenever it was recorded, even
// when the ledger call failed.
func (eng *Engine) submitWill(ctx context.Context, st *workflow.State, res *workflow.Result) (*submission.Submission, error) {
	now := eng.now().UTC()
	sub := &submission.Submission{
		ID:        id.NewSubmissionID(),
		SessionID: st.SessionID,
		Owner:     st.Owner,
		Result:    res,
		State:     submission.StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := eng.submissions.CreateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}

	if eng.ledger == nil {
		eng.logger.WarnContext(ctx, "no ledger configured, submission left pending",
			slog.String("session_id", st.SessionID.String()),
			slog.String("submission_id", sub.ID.String()),
		)
		return sub, nil
	}
	return eng.deliver(ctx, sub)
}

// deliver makes one ledger call for sub and records the outcome. The
// ledger error, if any, is returned unchanged.
func (eng *Engine) deliver(ctx context.Context, sub *submission.Submission) (*submission.Submission, error) {
	var tx ledger.TxRef
	callErr := eng.run(ctx, eng.collaboratorOp("ledger.submit", sub.SessionID.String()), func(ctx context.Context) error {
		var err error
		tx, err = eng.ledger.Submit(ctx, ledger.FromResult(sub.Result))
		return err
	})

	sub.Attempts++
	sub.UpdatedAt = eng.now().UTC()
	if callErr != nil {
		sub.State = submission.StateFailed
		sub.Error = callErr.Error()
		sub.ErrorKind = string(ledger.KindOf(callErr))
	} else {
		sub.State = submission.StateSubmitted
		sub.TxRef = string(tx)
		sub.Error = ""
		sub.ErrorKind = ""
	}

	if err := eng.submissions.UpdateSubmission(ctx, sub); err != nil {
		eng.logger.ErrorContext(ctx, "failed to record submission outcome",
			slog.String("submission_id", sub.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	if callErr != nil {
		eng.extensions.EmitSubmissionFailed(ctx, sub, callErr)
		return sub, callErr
	}

	eng.extensions.EmitWillSubmitted(ctx, sub)
	if _, err := eng.eventBus.PublishJSON(ctx, event.NameWillSubmitted, sub); err != nil {
		eng.logger.WarnContext(ctx, "failed to publish will submitted event",
			slog.String("submission_id", sub.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return sub, nil
}
