// Package notify delivers inheritance notifications to beneficiaries.
//
// A [Sender] turns a [Request] into one outgoing message. The SMTP
// implementation is [SMTPSender]; failures surface as [*DeliveryError],
// which matches [bequest.ErrDelivery] under errors.Is.
package notify

import (
	"context"
	"fmt"

	"github.com/venu630/bequest"
)

// Request describes one notification.
type Request struct {
	RecipientName  string `json:"beneficiaryName" validate:"required"`
	RecipientEmail string `json:"beneficiaryEmail" validate:"required,email"`
	OwnerName      string `json:"testatorName" validate:"required"`
	Amount         string `json:"ethAmount" validate:"required"`
	TransactionRef string `json:"transactionHash" validate:"required"`
	DocumentName   string `json:"saleDeedName"`
	DocumentRef    string `json:"saleDeedIPFSHash"`
}

// Result is the outcome of a successful delivery.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

// Sender delivers notifications.
type Sender interface {
	Send(ctx context.Context, req Request) (*Result, error)
}

// DeliveryError is returned when a notification could not be delivered.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("bequest: notification to %s failed: %v", e.Recipient, e.Err)
}

// Unwrap exposes both the delivery sentinel and the transport cause.
func (e *DeliveryError) Unwrap() []error {
	return []error{bequest.ErrDelivery, e.Err}
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, req Request) (*Result, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, req Request) (*Result, error) { return f(ctx, req) }
