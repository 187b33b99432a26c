// Package step defines step records and the Step Store contract that
// persists per-step draft data for a workflow session.
package step

import (
	"context"
	"maps"
	"sort"
	"time"

	"github.com/venu630/bequest/id"
)

// Fields maps a form field name to its raw value.
type Fields map[string]string

// Clone returns a copy of f. A nil map clones to an empty one.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	maps.Copy(out, f)
	return out
}

// Record is the persisted data of one step. Records are owned by the
// Store: they are created when a step is submitted, overwritten on every
// later submission of the same index, and removed only when the whole
// session is cleared.
type Record struct {
	Index     int       `json:"index"`
	Fields    Fields    `json:"fields"`
	Valid     bool      `json:"valid"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the persistence contract for step records. Every method is
// scoped to one workflow session.
type Store interface {
	// GetStep returns the record at index, or nil when none exists.
	GetStep(ctx context.Context, sessionID id.SessionID, index int) (*Record, error)

	// PutStep stores fields at index, replacing any existing record.
	// Fields are never merged with a previous record.
	PutStep(ctx context.Context, sessionID id.SessionID, index int, fields Fields, valid bool) error

	// AllSteps returns every record of the session keyed by index.
	AllSteps(ctx context.Context, sessionID id.SessionID) (map[int]*Record, error)

	// ClearSteps removes every record of the session.
	ClearSteps(ctx context.Context, sessionID id.SessionID) error
}

// Ordered flattens a record map into a slice sorted by index.
func Ordered(all map[int]*Record) []Record {
	out := make([]Record, 0, len(all))
	for _, r := range all {
		if r == nil {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
