package api

import (
	"encoding/json"

	"github.com/venu630/bequest/engine"
	"github.com/venu630/bequest/pin"
	"github.com/venu630/bequest/submission"
	"github.com/venu630/bequest/validate"
)

// StepCount accepts the beneficiary count as a JSON string or number.
type StepCount string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StepCount) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = StepCount(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = StepCount(n.String())
	return nil
}

// StartWorkflowRequest starts an allocation session.
type StartWorkflowRequest struct {
	Definition string    `json:"definition"`
	Count      StepCount `json:"count"`
	Owner      string    `json:"owner" validate:"omitempty,eth_addr"`
}

// UpdateDraftRequest replaces the draft of the active step.
type UpdateDraftRequest struct {
	Fields map[string]string `json:"fields" validate:"required"`
}

// CreateWillRequest is the owner form.
type CreateWillRequest struct {
	Owner            string    `json:"owner"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	BeneficiaryCount StepCount `json:"beneficiaryCount"`
}

// ListRequest carries the common list query parameters.
type ListRequest struct {
	State  string `query:"state"`
	Limit  int    `query:"limit" validate:"gte=0,lte=100"`
	Offset int    `query:"offset" validate:"gte=0"`
}

// DisbursementRequest relays a FundsDisbursed contract event.
type DisbursementRequest struct {
	Beneficiary string `json:"beneficiary" validate:"required,eth_addr"`
	Amount      string `json:"amount" validate:"required,numeric"`
	DocumentRef string `json:"saleDeedIpfsHash"`
	Email       string `json:"email" validate:"required,email"`
	TxHash      string `json:"transactionHash" validate:"required"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// SubmitResponse is returned when the last step completes but the ledger
// call failed. The session is completed; the submission can be retried.
type SubmitResponse struct {
	*engine.Session
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// SubmissionsResponse lists will submissions.
type SubmissionsResponse struct {
	Submissions []*submission.Submission `json:"submissions"`
}

// DocumentResponse describes one pinned document.
type DocumentResponse struct {
	Name string `json:"name"`
	pin.Ref
}

// DocumentsResponse is returned by POST /v1/documents.
type DocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

// NotificationResponse is returned by POST /v1/notifications.
type NotificationResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
}

// DisbursementResponse is returned by POST /v1/disbursements.
type DisbursementResponse struct {
	EventID string `json:"eventId"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error string `json:"error"`

	// FieldErrors maps field names to messages for validation failures.
	FieldErrors validate.Errors `json:"fieldErrors,omitempty"`

	// ActualTotal is the share total of a failed reconciliation.
	ActualTotal string `json:"actualTotal,omitempty"`

	// Exit tells the surface to leave the workflow.
	Exit bool `json:"exit,omitempty"`

	// Kind classifies collaborator failures.
	Kind string `json:"kind,omitempty"`
}
