// Package ledger is the client side of the will contract. The contract
// itself lives behind an HTTP gateway; this package shapes allocations
// for it and classifies its failures.
//
// Writes (Submit, CreateWill) are never retried here. Reads (HasWill,
// WillTransaction) are retried with backoff while the gateway reports
// itself unavailable.
package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/reconcile"
	"github.com/venu630/bequest/validate"
)

// TxRef identifies a ledger transaction.
type TxRef string

// Allocation is one beneficiary's part of a will.
type Allocation struct {
	WalletAddress string          `json:"walletAddress"`
	SharePercent  decimal.Decimal `json:"sharePercent"`
	DocumentRef   string          `json:"documentRef,omitempty"`
	Email         string          `json:"email"`
}

// Will is the owner record created before any allocation is submitted.
type Will struct {
	Owner     string          `json:"owner"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Deposit   decimal.Decimal `json:"deposit"`
}

// Ledger is the will contract as seen by the service.
type Ledger interface {
	// Submit records the allocations and returns the transaction reference.
	Submit(ctx context.Context, allocs []Allocation) (TxRef, error)
	// HasWill reports whether owner already has a will.
	HasWill(ctx context.Context, owner string) (bool, error)
	// WillTransaction returns the transaction that created owner's will.
	WillTransaction(ctx context.Context, owner string) (TxRef, error)
	// CreateWill creates a will for the owner in w.
	CreateWill(ctx context.Context, w Will) (TxRef, error)
}

// Kind classifies a ledger failure.
type Kind string

const (
	// KindRejected means the contract refused the call.
	KindRejected Kind = "rejected"
	// KindInsufficientFunds means the caller could not cover the value sent.
	KindInsufficientFunds Kind = "insufficient_funds"
	// KindDeclined means the signer declined the transaction.
	KindDeclined Kind = "declined"
	// KindUnavailable means the gateway or chain could not be reached.
	KindUnavailable Kind = "unavailable"
	// KindNotFound means the requested will does not exist.
	KindNotFound Kind = "not_found"
)

// Error is a classified ledger failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("bequest: ledger %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("bequest: ledger %s: %s", e.Kind, e.Message)
}

// Unwrap exposes the ledger sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{bequest.ErrLedger}
	}
	return []error{bequest.ErrLedger, e.Err}
}

// KindOf returns the kind of a ledger error, or "" when err is not one.
func KindOf(err error) Kind {
	if le, ok := asError(err); ok {
		return le.Kind
	}
	return ""
}

// FromResult builds one allocation per record of a reconciled result, in
// record order. Shares are read from the field the result was reconciled
// on, defaulting to the beneficiary share field.
func FromResult(res *reconcile.Result) []Allocation {
	if res == nil {
		return nil
	}
	shareField := res.ShareField
	if shareField == "" {
		shareField = validate.FieldShare
	}
	out := make([]Allocation, 0, len(res.Records))
	for _, r := range res.Records {
		out = append(out, Allocation{
			WalletAddress: r.Fields[validate.FieldWalletAddress],
			SharePercent:  reconcile.Share(r, shareField),
			DocumentRef:   r.Fields[validate.FieldSaleDeedRef],
			Email:         r.Fields[validate.FieldEmail],
		})
	}
	return out
}
