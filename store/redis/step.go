package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/venu630/bequest/id"
	"github.com/venu630/bequest/step"
)

// GetStep returns the record at index, or nil when none exists.
func (s *Store) GetStep(ctx context.Context, sessionID id.SessionID, index int) (*step.Record, error) {
	raw, err := s.client.HGet(ctx, stepsKey(sessionID.String()), strconv.Itoa(index)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bequest/redis: get step: %w", err)
	}
	return decodeRecord(raw)
}

// PutStep overwrites the record at index and refreshes the session TTL.
func (s *Store) PutStep(ctx context.Context, sessionID id.SessionID, index int, fields step.Fields, valid bool) error {
	sID := sessionID.String()
	data, err := json.Marshal(&step.Record{
		Index:     index,
		Fields:    fields,
		Valid:     valid,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("bequest/redis: marshal step: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, stepsKey(sID), strconv.Itoa(index), string(data))
	s.expire(ctx, pipe, stepsKey(sID), sessionKey(sID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("bequest/redis: put step: %w", err)
	}
	return nil
}

// AllSteps returns every record of the session keyed by index.
func (s *Store) AllSteps(ctx context.Context, sessionID id.SessionID) (map[int]*step.Record, error) {
	vals, err := s.client.HGetAll(ctx, stepsKey(sessionID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("bequest/redis: all steps: %w", err)
	}

	out := make(map[int]*step.Record, len(vals))
	for _, raw := range vals {
		r, decErr := decodeRecord(raw)
		if decErr != nil {
			return nil, decErr
		}
		out[r.Index] = r
	}
	return out, nil
}

// ClearSteps removes every record of the session.
func (s *Store) ClearSteps(ctx context.Context, sessionID id.SessionID) error {
	if err := s.client.Del(ctx, stepsKey(sessionID.String())).Err(); err != nil {
		return fmt.Errorf("bequest/redis: clear steps: %w", err)
	}
	return nil
}

func decodeRecord(raw string) (*step.Record, error) {
	var r step.Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("bequest/redis: decode step: %w", err)
	}
	if r.Fields == nil {
		r.Fields = step.Fields{}
	}
	return &r, nil
}
