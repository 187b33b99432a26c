package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/event"
	"github.com/venu630/bequest/id"
	"github.com/venu630/bequest/reconcile"
	"github.com/venu630/bequest/step"
	"github.com/venu630/bequest/submission"
	"github.com/venu630/bequest/workflow"
)

// ──────────────────────────────────────────────────
// Lifecycle tests
// ──────────────────────────────────────────────────

func TestLifecycle(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"Migrate", func() error { return s.Migrate(ctx) }},
		{"Ping", func() error { return s.Ping(ctx) }},
		{"Close", func() error { return s.Close() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); err != nil {
				t.Fatalf("%s returned error: %v", tt.name, err)
			}
		})
	}
}

// ──────────────────────────────────────────────────
// Step Store tests
// ──────────────────────────────────────────────────

func TestStep_GetMissing(t *testing.T) {
	t.Parallel()
	s := New()

	r, err := s.GetStep(context.Background(), id.NewSessionID(), 1)
	if err != nil {
		t.Fatalf("GetStep: %v", err)
	}
	if r != nil {
		t.Errorf("expected nil record, got %+v", r)
	}
}

func TestStep_PutOverwrites(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	sid := id.NewSessionID()

	if err := s.PutStep(ctx, sid, 1, step.Fields{"a": "1", "b": "2"}, true); err != nil {
		t.Fatal(err)
	}
	if err := s.PutStep(ctx, sid, 1, step.Fields{"a": "9"}, false); err != nil {
		t.Fatal(err)
	}

	r, err := s.GetStep(ctx, sid, 1)
	if err != nil || r == nil {
		t.Fatalf("GetStep: %v, %v", r, err)
	}
	if r.Fields["a"] != "9" {
		t.Errorf("a = %q, want 9", r.Fields["a"])
	}
	if _, merged := r.Fields["b"]; merged {
		t.Error("put merged fields with the previous record")
	}
	if r.Valid {
		t.Error("Valid should follow the last put")
	}
}

func TestStep_ReturnsCopies(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	sid := id.NewSessionID()

	fields := step.Fields{"share": "50"}
	if err := s.PutStep(ctx, sid, 1, fields, true); err != nil {
		t.Fatal(err)
	}
	fields["share"] = "10"

	r, _ := s.GetStep(ctx, sid, 1)
	r.Fields["share"] = "20"

	again, _ := s.GetStep(ctx, sid, 1)
	if again.Fields["share"] != "50" {
		t.Errorf("stored record was mutated: %q", again.Fields["share"])
	}
}

func TestStep_AllAndClearAreSessionScoped(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	a, b := id.NewSessionID(), id.NewSessionID()

	for i := 1; i <= 3; i++ {
		if err := s.PutStep(ctx, a, i, step.Fields{"i": "x"}, true); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.PutStep(ctx, b, 1, step.Fields{"i": "y"}, true); err != nil {
		t.Fatal(err)
	}

	all, err := s.AllSteps(ctx, a)
	if err != nil || len(all) != 3 {
		t.Fatalf("AllSteps(a) = %d, %v", len(all), err)
	}

	if err := s.ClearSteps(ctx, a); err != nil {
		t.Fatal(err)
	}
	all, _ = s.AllSteps(ctx, a)
	if len(all) != 0 {
		t.Errorf("session a still has %d records", len(all))
	}
	all, _ = s.AllSteps(ctx, b)
	if len(all) != 1 {
		t.Errorf("session b lost records: %d", len(all))
	}
}

func TestStep_ScopedRejectsOutOfRange(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	sc := step.NewScoped(s, id.NewSessionID(), 2)

	for _, idx := range []int{0, 3} {
		if err := sc.Put(ctx, idx, step.Fields{}, true); !errors.Is(err, bequest.ErrStepOutOfRange) {
			t.Errorf("Put(%d) error = %v, want ErrStepOutOfRange", idx, err)
		}
	}
	all, _ := sc.All(ctx)
	if len(all) != 0 {
		t.Errorf("out-of-range puts reached the store: %v", all)
	}
}

// ──────────────────────────────────────────────────
// State Store tests
// ──────────────────────────────────────────────────

func newState(rs workflow.RunState, started time.Time) *workflow.State {
	return &workflow.State{
		SessionID:    id.NewSessionID(),
		Definition:   workflow.BeneficiariesName,
		Version:      1,
		Config:       workflow.Config{TotalSteps: 2, ShareField: "share"},
		CurrentIndex: 1,
		RunState:     rs,
		Draft:        workflow.Draft{Fields: step.Fields{"share": "10"}},
		StartedAt:    started,
		UpdatedAt:    started,
	}
}

func TestState_CRUD(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	st := newState(workflow.RunStateActive, time.Now().UTC())

	if err := s.CreateState(ctx, st); err != nil {
		t.Fatalf("CreateState: %v", err)
	}
	if err := s.CreateState(ctx, st); !errors.Is(err, bequest.ErrSessionExists) {
		t.Errorf("duplicate create = %v, want ErrSessionExists", err)
	}

	st.CurrentIndex = 2
	st.Draft.Fields["share"] = "90"
	if err := s.UpdateState(ctx, st); err != nil {
		t.Fatalf("UpdateState: %v", err)
	}

	got, err := s.GetState(ctx, st.SessionID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if got.CurrentIndex != 2 || got.Draft.Fields["share"] != "90" {
		t.Errorf("got %+v", got)
	}

	if err := s.DeleteState(ctx, st.SessionID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetState(ctx, st.SessionID); !errors.Is(err, bequest.ErrSessionNotFound) {
		t.Errorf("GetState after delete = %v", err)
	}
	if err := s.UpdateState(ctx, st); !errors.Is(err, bequest.ErrSessionNotFound) {
		t.Errorf("UpdateState after delete = %v", err)
	}
}

func TestState_ListFiltersAndOrders(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	base := time.Now().UTC()

	older := newState(workflow.RunStateActive, base.Add(-time.Hour))
	newer := newState(workflow.RunStateActive, base)
	done := newState(workflow.RunStateCompleted, base.Add(-time.Minute))
	for _, st := range []*workflow.State{older, newer, done} {
		if err := s.CreateState(ctx, st); err != nil {
			t.Fatal(err)
		}
	}

	active, err := s.ListStates(ctx, workflow.ListOpts{State: workflow.RunStateActive})
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 || active[0].SessionID != newer.SessionID {
		t.Errorf("active list wrong: %d entries", len(active))
	}

	page, _ := s.ListStates(ctx, workflow.ListOpts{Offset: 1, Limit: 1})
	if len(page) != 1 || page[0].SessionID != done.SessionID {
		t.Errorf("paged list wrong: %+v", page)
	}
}

// ──────────────────────────────────────────────────
// Submission Store tests
// ──────────────────────────────────────────────────

func TestSubmission_CRUD(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	sub := &submission.Submission{
		ID:        id.NewSubmissionID(),
		SessionID: id.NewSessionID(),
		Result: &reconcile.Result{
			Success: true,
			Total:   decimal.NewFromInt(100),
			Records: []step.Record{{Index: 1, Fields: step.Fields{"share": "100"}, Valid: true}},
		},
		State:     submission.StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.CreateSubmission(ctx, sub); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}
	if err := s.CreateSubmission(ctx, sub); !errors.Is(err, bequest.ErrSubmissionExists) {
		t.Errorf("duplicate create = %v", err)
	}

	sub.State = submission.StateFailed
	sub.Error = "unavailable"
	sub.Attempts = 1
	if err := s.UpdateSubmission(ctx, sub); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetSubmission(ctx, sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != submission.StateFailed || got.Attempts != 1 {
		t.Errorf("got %+v", got)
	}
	got.Result.Records[0].Fields["share"] = "0"
	again, _ := s.GetSubmission(ctx, sub.ID)
	if again.Result.Records[0].Fields["share"] != "100" {
		t.Error("stored result was mutated through a returned copy")
	}

	failed, _ := s.ListSubmissions(ctx, submission.ListOpts{State: submission.StateFailed})
	if len(failed) != 1 {
		t.Errorf("ListSubmissions(failed) = %d", len(failed))
	}

	if _, err := s.GetSubmission(ctx, id.NewSubmissionID()); !errors.Is(err, bequest.ErrSubmissionNotFound) {
		t.Errorf("missing submission = %v", err)
	}
}

// ──────────────────────────────────────────────────
// Event Store tests
// ──────────────────────────────────────────────────

func TestEvent_SubscribeOldestFirst(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()
	base := time.Now().UTC()

	second := &event.Event{ID: id.NewEventID(), Name: "x", CreatedAt: base}
	first := &event.Event{ID: id.NewEventID(), Name: "x", CreatedAt: base.Add(-time.Second)}
	for _, e := range []*event.Event{second, first} {
		if err := s.PublishEvent(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.SubscribeEvent(ctx, "x", time.Second)
	if err != nil || got == nil {
		t.Fatalf("SubscribeEvent: %v, %v", got, err)
	}
	if got.ID != first.ID {
		t.Errorf("got %s, want oldest %s", got.ID, first.ID)
	}

	if err := s.AckEvent(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = s.SubscribeEvent(ctx, "x", time.Second)
	if got == nil || got.ID != second.ID {
		t.Errorf("after ack got %v, want %s", got, second.ID)
	}
}

func TestEvent_SubscribeHonoursContext(t *testing.T) {
	t.Parallel()
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.SubscribeEvent(ctx, "none", time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEvent_AckMissing(t *testing.T) {
	t.Parallel()
	if err := New().AckEvent(context.Background(), id.NewEventID()); !errors.Is(err, bequest.ErrEventNotFound) {
		t.Errorf("AckEvent = %v, want ErrEventNotFound", err)
	}
}
