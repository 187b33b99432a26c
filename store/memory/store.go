package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/event"
	"github.com/venu630/bequest/id"
	"github.com/venu630/bequest/step"
	"github.com/venu630/bequest/submission"
	"github.com/venu630/bequest/workflow"
)

// Compile-time checks for every subsystem contract.
var (
	_ step.Store          = (*Store)(nil)
	_ workflow.StateStore = (*Store)(nil)
	_ submission.Store    = (*Store)(nil)
	_ event.Store         = (*Store)(nil)
)

// Store is a fully in-memory implementation of every bequest store.
// Safe for concurrent access. Data lives for the lifetime of the process.
type Store struct {
	mu sync.RWMutex

	steps       map[string]map[int]*step.Record // key: session ID
	states      map[string]*workflow.State
	submissions map[string]*submission.Submission
	events      map[string]*event.Event

	now func() time.Time
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		steps:       make(map[string]map[int]*step.Record),
		states:      make(map[string]*workflow.State),
		submissions: make(map[string]*submission.Submission),
		events:      make(map[string]*event.Event),
		now:         time.Now,
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Step Store
// ──────────────────────────────────────────────────

// GetStep returns the record at index, or nil when none exists.
func (m *Store) GetStep(_ context.Context, sessionID id.SessionID, index int) (*step.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.steps[sessionID.String()][index]
	if !ok {
		return nil, nil
	}
	return cloneRecord(r), nil
}

// PutStep overwrites the record at index.
func (m *Store) PutStep(_ context.Context, sessionID id.SessionID, index int, fields step.Fields, valid bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionID.String()
	if m.steps[key] == nil {
		m.steps[key] = make(map[int]*step.Record)
	}
	m.steps[key][index] = &step.Record{
		Index:     index,
		Fields:    fields.Clone(),
		Valid:     valid,
		UpdatedAt: m.now().UTC(),
	}
	return nil
}

// AllSteps returns every record of the session keyed by index.
func (m *Store) AllSteps(_ context.Context, sessionID id.SessionID) (map[int]*step.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.steps[sessionID.String()]
	out := make(map[int]*step.Record, len(src))
	for idx, r := range src {
		out[idx] = cloneRecord(r)
	}
	return out, nil
}

// ClearSteps removes every record of the session.
func (m *Store) ClearSteps(_ context.Context, sessionID id.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.steps, sessionID.String())
	return nil
}

func cloneRecord(r *step.Record) *step.Record {
	cp := *r
	cp.Fields = r.Fields.Clone()
	return &cp
}

// ──────────────────────────────────────────────────
// State Store
// ──────────────────────────────────────────────────

// CreateState persists a new session.
func (m *Store) CreateState(_ context.Context, s *workflow.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := s.SessionID.String()
	if _, exists := m.states[key]; exists {
		return bequest.ErrSessionExists
	}
	m.states[key] = s.Clone()
	return nil
}

// GetState retrieves a session by ID.
func (m *Store) GetState(_ context.Context, sessionID id.SessionID) (*workflow.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.states[sessionID.String()]
	if !ok {
		return nil, bequest.ErrSessionNotFound
	}
	return s.Clone(), nil
}

// UpdateState persists changes to an existing session.
func (m *Store) UpdateState(_ context.Context, s *workflow.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := s.SessionID.String()
	if _, ok := m.states[key]; !ok {
		return bequest.ErrSessionNotFound
	}
	m.states[key] = s.Clone()
	return nil
}

// DeleteState removes a session.
func (m *Store) DeleteState(_ context.Context, sessionID id.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, sessionID.String())
	return nil
}

// ListStates returns sessions matching opts, newest first.
func (m *Store) ListStates(_ context.Context, opts workflow.ListOpts) ([]*workflow.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*workflow.State
	for _, s := range m.states {
		if opts.State != "" && s.RunState != opts.State {
			continue
		}
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return paginate(out, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// Submission Store
// ──────────────────────────────────────────────────

// CreateSubmission persists a new submission.
func (m *Store) CreateSubmission(_ context.Context, s *submission.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := s.ID.String()
	if _, exists := m.submissions[key]; exists {
		return bequest.ErrSubmissionExists
	}
	m.submissions[key] = cloneSubmission(s)
	return nil
}

// GetSubmission retrieves a submission by ID.
func (m *Store) GetSubmission(_ context.Context, subID id.SubmissionID) (*submission.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.submissions[subID.String()]
	if !ok {
		return nil, bequest.ErrSubmissionNotFound
	}
	return cloneSubmission(s), nil
}

// UpdateSubmission persists changes to an existing submission.
func (m *Store) UpdateSubmission(_ context.Context, s *submission.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := s.ID.String()
	if _, ok := m.submissions[key]; !ok {
		return bequest.ErrSubmissionNotFound
	}
	m.submissions[key] = cloneSubmission(s)
	return nil
}

// ListSubmissions returns submissions matching opts, newest first.
func (m *Store) ListSubmissions(_ context.Context, opts submission.ListOpts) ([]*submission.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*submission.Submission
	for _, s := range m.submissions {
		if opts.State != "" && s.State != opts.State {
			continue
		}
		out = append(out, cloneSubmission(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, opts.Offset, opts.Limit), nil
}

func cloneSubmission(s *submission.Submission) *submission.Submission {
	cp := *s
	if s.Result != nil {
		res := *s.Result
		res.Records = make([]step.Record, len(s.Result.Records))
		for i, r := range s.Result.Records {
			res.Records[i] = *cloneRecord(&r)
		}
		cp.Result = &res
	}
	return &cp
}

// ──────────────────────────────────────────────────
// Event Store
// ──────────────────────────────────────────────────

// PublishEvent persists a new event.
func (m *Store) PublishEvent(_ context.Context, evt *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *evt
	m.events[evt.ID.String()] = &cp
	return nil
}

// SubscribeEvent waits for the oldest unacked event matching name.
// Poll-based: checks every 10ms until an event is available or timeout.
func (m *Store) SubscribeEvent(ctx context.Context, name string, timeout time.Duration) (*event.Event, error) {
	deadline := time.Now().Add(timeout)

	for {
		if evt := m.oldestUnacked(name); evt != nil {
			return evt, nil
		}
		if time.Now().After(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (m *Store) oldestUnacked(name string) *event.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *event.Event
	for _, evt := range m.events {
		if evt.Name != name || evt.Acked {
			continue
		}
		if best == nil || evt.CreatedAt.Before(best.CreatedAt) {
			best = evt
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

// AckEvent acknowledges an event, marking it as consumed.
func (m *Store) AckEvent(_ context.Context, eventID id.EventID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	evt, ok := m.events[eventID.String()]
	if !ok {
		return bequest.ErrEventNotFound
	}
	evt.Acked = true
	return nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
