package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/venu630/bequest/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"SessionID", id.NewSessionID, "wfs_"},
		{"SubmissionID", id.NewSubmissionID, "sub_"},
		{"EventID", id.NewEventID, "evt_"},
		{"NotificationID", id.NewNotificationID, "ntf_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"SessionID", id.NewSessionID, id.ParseSessionID},
		{"SubmissionID", id.NewSubmissionID, id.ParseSubmissionID},
		{"EventID", id.NewEventID, id.ParseEventID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parseFn func(string) (id.ID, error)
	}{
		{"ParseSessionID rejects sub_", id.NewSubmissionID().String(), id.ParseSessionID},
		{"ParseSubmissionID rejects evt_", id.NewEventID().String(), id.ParseSubmissionID},
		{"ParseEventID rejects wfs_", id.NewSessionID().String(), id.ParseEventID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.parseFn(tt.input); err == nil {
				t.Errorf("expected error for cross-type parse of %q, got nil", tt.input)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type doc struct {
		Session id.SessionID `json:"session"`
		Missing id.ID        `json:"missing"`
	}

	in := doc{Session: id.NewSessionID()}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out doc
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Session.String() != in.Session.String() {
		t.Errorf("session mismatch: %q != %q", out.Session, in.Session)
	}
	if !out.Missing.IsNil() {
		t.Error("expected nil ID after round-trip of empty value")
	}
}

func TestUniqueness(t *testing.T) {
	a := id.NewSessionID()
	b := id.NewSessionID()
	if a.String() == b.String() {
		t.Errorf("two consecutive NewSessionID() calls returned the same ID: %q", a.String())
	}
}
