package step

import (
	"context"
	"fmt"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/id"
)

// Scoped is a Store view bound to one session and to the index range
// [1, total]. It never lets a record outside that range reach the Store.
type Scoped struct {
	store   Store
	session id.SessionID
	total   int
}

// NewScoped binds store to a session with total steps.
func NewScoped(store Store, sessionID id.SessionID, total int) *Scoped {
	return &Scoped{store: store, session: sessionID, total: total}
}

// SessionID returns the bound session.
func (s *Scoped) SessionID() id.SessionID { return s.session }

// Get returns the record at index, or nil when none exists.
func (s *Scoped) Get(ctx context.Context, index int) (*Record, error) {
	if err := s.check(index); err != nil {
		return nil, err
	}
	return s.store.GetStep(ctx, s.session, index)
}

// Put overwrites the record at index.
func (s *Scoped) Put(ctx context.Context, index int, fields Fields, valid bool) error {
	if err := s.check(index); err != nil {
		return err
	}
	return s.store.PutStep(ctx, s.session, index, fields.Clone(), valid)
}

// All returns the session's records keyed by index.
func (s *Scoped) All(ctx context.Context) (map[int]*Record, error) {
	return s.store.AllSteps(ctx, s.session)
}

// Clear removes every record of the session.
func (s *Scoped) Clear(ctx context.Context) error {
	return s.store.ClearSteps(ctx, s.session)
}

func (s *Scoped) check(index int) error {
	if index < 1 || index > s.total {
		return fmt.Errorf("%w: %d not in [1, %d]", bequest.ErrStepOutOfRange, index, s.total)
	}
	return nil
}
