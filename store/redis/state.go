package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/id"
	"github.com/venu630/bequest/workflow"
)

// CreateState persists a new session.
func (s *Store) CreateState(ctx context.Context, st *workflow.State) error {
	sID := st.SessionID.String()
	key := sessionKey(sID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("bequest/redis: create state exists: %w", err)
	}
	if exists > 0 {
		return bequest.ErrSessionExists
	}

	m, err := stateToMap(st)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, m)
	pipe.SAdd(ctx, sessionIDsKey, sID)
	s.expire(ctx, pipe, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("bequest/redis: create state: %w", err)
	}
	return nil
}

// GetState retrieves a session by ID.
func (s *Store) GetState(ctx context.Context, sessionID id.SessionID) (*workflow.State, error) {
	vals, err := s.client.HGetAll(ctx, sessionKey(sessionID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("bequest/redis: get state: %w", err)
	}
	if len(vals) == 0 {
		return nil, bequest.ErrSessionNotFound
	}
	return mapToState(vals)
}

// UpdateState persists changes to an existing session and refreshes the
// TTL of the session and its step records.
func (s *Store) UpdateState(ctx context.Context, st *workflow.State) error {
	sID := st.SessionID.String()
	key := sessionKey(sID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("bequest/redis: update state exists: %w", err)
	}
	if exists == 0 {
		return bequest.ErrSessionNotFound
	}

	m, err := stateToMap(st)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, m)
	if st.FinishedAt == nil {
		pipe.HDel(ctx, key, "finished_at")
	}
	s.expire(ctx, pipe, key, stepsKey(sID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("bequest/redis: update state: %w", err)
	}
	return nil
}

// DeleteState removes a session and its step records.
func (s *Store) DeleteState(ctx context.Context, sessionID id.SessionID) error {
	sID := sessionID.String()
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sID), stepsKey(sID))
	pipe.SRem(ctx, sessionIDsKey, sID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("bequest/redis: delete state: %w", err)
	}
	return nil
}

// ListStates returns sessions matching opts, newest first. Expired
// sessions are dropped from the index as they are found.
func (s *Store) ListStates(ctx context.Context, opts workflow.ListOpts) ([]*workflow.State, error) {
	ids, err := s.client.SMembers(ctx, sessionIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("bequest/redis: list states smembers: %w", err)
	}

	var states []*workflow.State
	for _, sID := range ids {
		vals, getErr := s.client.HGetAll(ctx, sessionKey(sID)).Result()
		if getErr != nil {
			continue
		}
		if len(vals) == 0 {
			s.client.SRem(ctx, sessionIDsKey, sID)
			continue
		}
		st, convErr := mapToState(vals)
		if convErr != nil {
			continue
		}
		if opts.State != "" && st.RunState != opts.State {
			continue
		}
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].StartedAt.After(states[j].StartedAt) })

	if opts.Offset > 0 && opts.Offset < len(states) {
		states = states[opts.Offset:]
	} else if opts.Offset >= len(states) {
		return nil, nil
	}
	if opts.Limit > 0 && opts.Limit < len(states) {
		states = states[:opts.Limit]
	}
	return states, nil
}

// ── helpers ──

func stateToMap(st *workflow.State) (map[string]interface{}, error) {
	cfg, err := json.Marshal(st.Config)
	if err != nil {
		return nil, fmt.Errorf("bequest/redis: marshal config: %w", err)
	}
	draft, err := json.Marshal(st.Draft)
	if err != nil {
		return nil, fmt.Errorf("bequest/redis: marshal draft: %w", err)
	}

	m := map[string]interface{}{
		"id":            st.SessionID.String(),
		"definition":    st.Definition,
		"version":       st.Version,
		"owner":         st.Owner,
		"config":        string(cfg),
		"current_index": st.CurrentIndex,
		"state":         string(st.RunState),
		"draft":         string(draft),
		"started_at":    st.StartedAt.Format(time.RFC3339Nano),
		"updated_at":    st.UpdatedAt.Format(time.RFC3339Nano),
	}
	if st.FinishedAt != nil {
		m["finished_at"] = st.FinishedAt.Format(time.RFC3339Nano)
	}
	return m, nil
}

func mapToState(m map[string]string) (*workflow.State, error) {
	sID, err := id.ParseSessionID(m["id"])
	if err != nil {
		return nil, fmt.Errorf("bequest/redis: parse session id: %w", err)
	}

	st := &workflow.State{
		SessionID:  sID,
		Definition: m["definition"],
		Owner:      m["owner"],
		RunState:   workflow.RunState(m["state"]),
	}
	st.Version, _ = strconv.Atoi(m["version"])           //nolint:errcheck // trusted Redis data
	st.CurrentIndex, _ = strconv.Atoi(m["current_index"]) //nolint:errcheck // trusted Redis data

	if err := json.Unmarshal([]byte(m["config"]), &st.Config); err != nil {
		return nil, fmt.Errorf("bequest/redis: decode config: %w", err)
	}
	if err := json.Unmarshal([]byte(m["draft"]), &st.Draft); err != nil {
		return nil, fmt.Errorf("bequest/redis: decode draft: %w", err)
	}

	st.StartedAt, _ = time.Parse(time.RFC3339Nano, m["started_at"]) //nolint:errcheck // trusted Redis data
	st.UpdatedAt, _ = time.Parse(time.RFC3339Nano, m["updated_at"]) //nolint:errcheck // trusted Redis data
	if v := m["finished_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // trusted Redis data
		st.FinishedAt = &t
	}
	return st, nil
}
