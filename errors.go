package bequest

import "errors"

var (
	// Store errors.
	ErrNoStore     = errors.New("bequest: no store configured")
	ErrStoreClosed = errors.New("bequest: store closed")

	// Not found errors.
	ErrSessionNotFound    = errors.New("bequest: session not found")
	ErrSubmissionNotFound = errors.New("bequest: submission not found")
	ErrDefinitionNotFound = errors.New("bequest: workflow definition not found")
	ErrEventNotFound      = errors.New("bequest: event not found")

	// Conflict errors.
	ErrSessionExists    = errors.New("bequest: session already exists")
	ErrSubmissionExists = errors.New("bequest: submission already exists")

	// Workflow errors.
	ErrConfig            = errors.New("bequest: invalid workflow configuration")
	ErrValidationBlocked = errors.New("bequest: current step is not valid")
	ErrReconciliation    = errors.New("bequest: shares do not reconcile")
	ErrAtBoundary        = errors.New("bequest: already at the first step")
	ErrWorkflowClosed    = errors.New("bequest: workflow is no longer active")
	ErrStepOutOfRange    = errors.New("bequest: step index out of range")
	ErrInvalidState      = errors.New("bequest: invalid state transition")

	// Collaborator errors.
	ErrDelivery           = errors.New("bequest: notification delivery failed")
	ErrLedger             = errors.New("bequest: ledger submission failed")
	ErrUpload             = errors.New("bequest: document upload failed")
	ErrCollaboratorAbsent = errors.New("bequest: collaborator not configured")

	// Disbursement errors.
	ErrInvalidEvent = errors.New("bequest: invalid disbursement event")
)
