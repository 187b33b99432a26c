// Package id defines TypeID-based identity types for bequest entities.
//
// Sessions, submissions, events and notifications share a single ID struct
// whose prefix names the entity type. IDs are K-sortable (UUIDv7-based) and
// render as "prefix_suffix", which keeps them safe to place in URLs and
// Redis keys.
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for bequest entity types.
const (
	PrefixSession      Prefix = "wfs"
	PrefixSubmission   Prefix = "sub"
	PrefixEvent        Prefix = "evt"
	PrefixNotification Prefix = "ntf"
)

// ID is the primary identifier type for bequest entities.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string such as "wfs_01h2xcejqtf2nbrexx3vqjhp41".
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and checks that its prefix matches.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// SessionID identifies one workflow instance (prefix: "wfs").
type SessionID = ID

// SubmissionID identifies a ledger submission of a finalized result (prefix: "sub").
type SubmissionID = ID

// EventID identifies an event on the bus (prefix: "evt").
type EventID = ID

// NotificationID identifies a sent notification (prefix: "ntf").
type NotificationID = ID

// NewSessionID generates a new workflow session ID.
func NewSessionID() ID { return New(PrefixSession) }

// NewSubmissionID generates a new submission ID.
func NewSubmissionID() ID { return New(PrefixSubmission) }

// NewEventID generates a new event ID.
func NewEventID() ID { return New(PrefixEvent) }

// NewNotificationID generates a new notification ID.
func NewNotificationID() ID { return New(PrefixNotification) }

// ParseSessionID parses a string and validates the "wfs" prefix.
func ParseSessionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixSession) }

// ParseSubmissionID parses a string and validates the "sub" prefix.
func ParseSubmissionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixSubmission) }

// ParseEventID parses a string and validates the "evt" prefix.
func ParseEventID(s string) (ID, error) { return ParseWithPrefix(s, PrefixEvent) }

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}
