// Package disburse turns FundsDisbursed events from the will contract
// into beneficiary notifications.
//
// Events arrive from a [Source]: the in-process event bus or a NATS
// JetStream consumer. Each event is acknowledged once dispatched. A
// notification that fails is logged and reported to extensions, never
// redelivered.
package disburse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/venu630/bequest/notify"
)

// Names used for every disbursement notification.
const (
	OwnerName    = "Estate Owner"
	DocumentName = "Property Deed Document"
)

// FundsDisbursed is the contract event emitted when a beneficiary is paid.
type FundsDisbursed struct {
	Beneficiary string `json:"beneficiary"`
	Amount      string `json:"amount"` // wei, base 10
	DocumentRef string `json:"saleDeedIpfsHash"`
	Email       string `json:"email"`
	TxHash      string `json:"transactionHash"`
}

// Handler receives decoded events.
type Handler func(ctx context.Context, evt FundsDisbursed)

// Source delivers FundsDisbursed events to handle until ctx ends.
type Source interface {
	Run(ctx context.Context, handle Handler) error
}

// Emitter is told about notification outcomes. *ext.Registry implements it.
type Emitter interface {
	EmitNotificationSent(ctx context.Context, req *notify.Request, res *notify.Result)
	EmitNotificationFailed(ctx context.Context, req *notify.Request, err error)
}

// Listener notifies beneficiaries of disbursements.
type Listener struct {
	sender      notify.Sender
	emitter     Emitter
	logger      *slog.Logger
	concurrency int
}

// Option configures a Listener.
type Option func(*Listener)

// WithEmitter reports notification outcomes to e.
func WithEmitter(e Emitter) Option {
	return func(l *Listener) { l.emitter = e }
}

// WithLogger sets the listener logger.
func WithLogger(lg *slog.Logger) Option {
	return func(l *Listener) { l.logger = lg }
}

// WithConcurrency caps the number of notifications in flight.
func WithConcurrency(n int) Option {
	return func(l *Listener) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// NewListener creates a listener that sends through sender.
func NewListener(sender notify.Sender, opts ...Option) *Listener {
	l := &Listener{
		sender:      sender,
		logger:      slog.Default(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run consumes src until ctx ends, then waits for in-flight
// notifications.
func (l *Listener) Run(ctx context.Context, src Source) error {
	var g errgroup.Group
	g.SetLimit(l.concurrency)

	l.logger.Info("listening for disbursements")
	err := src.Run(ctx, func(ctx context.Context, evt FundsDisbursed) {
		g.Go(func() error {
			_, _ = l.Handle(context.WithoutCancel(ctx), evt) //nolint:errcheck // logged in Handle
			return nil
		})
	})
	_ = g.Wait() //nolint:errcheck // workers never fail
	return err
}

// Handle sends the notification for one event.
func (l *Listener) Handle(ctx context.Context, evt FundsDisbursed) (*notify.Result, error) {
	logger := l.logger.With(
		slog.String("beneficiary", evt.Beneficiary),
		slog.String("tx_hash", evt.TxHash),
	)

	req, err := Request(evt)
	if err != nil {
		logger.Warn("malformed disbursement", slog.String("error", err.Error()))
		return nil, err
	}
	logger.Info("disbursement detected",
		slog.String("amount_eth", req.Amount),
		slog.String("document_ref", evt.DocumentRef),
	)

	res, err := l.sender.Send(ctx, req)
	if err != nil {
		logger.Error("failed to send notification", slog.String("error", err.Error()))
		if l.emitter != nil {
			l.emitter.EmitNotificationFailed(ctx, &req, err)
		}
		return nil, err
	}

	logger.Info("notification sent", slog.String("message_id", res.MessageID))
	if l.emitter != nil {
		l.emitter.EmitNotificationSent(ctx, &req, res)
	}
	return res, nil
}

// Request builds the notification for evt.
func Request(evt FundsDisbursed) (notify.Request, error) {
	if evt.Email == "" {
		return notify.Request{}, fmt.Errorf("bequest/disburse: event %s has no email", evt.TxHash)
	}
	amount, err := FormatEther(evt.Amount)
	if err != nil {
		return notify.Request{}, err
	}
	return notify.Request{
		RecipientName:  ShortAddress(evt.Beneficiary),
		RecipientEmail: evt.Email,
		OwnerName:      OwnerName,
		Amount:         amount,
		TransactionRef: evt.TxHash,
		DocumentName:   DocumentName,
		DocumentRef:    evt.DocumentRef,
	}, nil
}

// FormatEther renders a wei amount in ETH, keeping at least one decimal
// place ("1000000000000000000" becomes "1.0").
func FormatEther(wei string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(wei))
	if err != nil {
		return "", fmt.Errorf("bequest/disburse: amount %q: %w", wei, err)
	}
	if d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return "", fmt.Errorf("bequest/disburse: amount %q is not a wei value", wei)
	}
	s := d.Shift(-18).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}

// ShortAddress abbreviates an address to its first six and last four
// characters, as in 0x1234...abcd.
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
