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
	"github.com/venu630/bequest/reconcile"
	"github.com/venu630/bequest/submission"
)

// CreateSubmission persists a new submission.
func (s *Store) CreateSubmission(ctx context.Context, sub *submission.Submission) error {
	subID := sub.ID.String()
	key := submissionKey(subID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("bequest/redis: create submission exists: %w", err)
	}
	if exists > 0 {
		return bequest.ErrSubmissionExists
	}

	m, err := submissionToMap(sub)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, m)
	pipe.SAdd(ctx, submissionIDsKey, subID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("bequest/redis: create submission: %w", err)
	}
	return nil
}

// GetSubmission retrieves a submission by ID.
func (s *Store) GetSubmission(ctx context.Context, subID id.SubmissionID) (*submission.Submission, error) {
	vals, err := s.client.HGetAll(ctx, submissionKey(subID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("bequest/redis: get submission: %w", err)
	}
	if len(vals) == 0 {
		return nil, bequest.ErrSubmissionNotFound
	}
	return mapToSubmission(vals)
}

// UpdateSubmission persists changes to an existing submission.
func (s *Store) UpdateSubmission(ctx context.Context, sub *submission.Submission) error {
	key := submissionKey(sub.ID.String())
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("bequest/redis: update submission exists: %w", err)
	}
	if exists == 0 {
		return bequest.ErrSubmissionNotFound
	}

	m, err := submissionToMap(sub)
	if err != nil {
		return err
	}
	if _, err := s.client.HSet(ctx, key, m).Result(); err != nil {
		return fmt.Errorf("bequest/redis: update submission: %w", err)
	}
	return nil
}

// ListSubmissions returns submissions matching opts, newest first.
func (s *Store) ListSubmissions(ctx context.Context, opts submission.ListOpts) ([]*submission.Submission, error) {
	ids, err := s.client.SMembers(ctx, submissionIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("bequest/redis: list submissions smembers: %w", err)
	}

	var subs []*submission.Submission
	for _, subID := range ids {
		vals, getErr := s.client.HGetAll(ctx, submissionKey(subID)).Result()
		if getErr != nil || len(vals) == 0 {
			continue
		}
		sub, convErr := mapToSubmission(vals)
		if convErr != nil {
			continue
		}
		if opts.State != "" && sub.State != opts.State {
			continue
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.After(subs[j].CreatedAt) })

	if opts.Offset > 0 && opts.Offset < len(subs) {
		subs = subs[opts.Offset:]
	} else if opts.Offset >= len(subs) {
		return nil, nil
	}
	if opts.Limit > 0 && opts.Limit < len(subs) {
		subs = subs[:opts.Limit]
	}
	return subs, nil
}

// ── helpers ──

func submissionToMap(sub *submission.Submission) (map[string]interface{}, error) {
	res, err := json.Marshal(sub.Result)
	if err != nil {
		return nil, fmt.Errorf("bequest/redis: marshal result: %w", err)
	}
	return map[string]interface{}{
		"id":         sub.ID.String(),
		"session_id": sub.SessionID.String(),
		"owner":      sub.Owner,
		"result":     string(res),
		"state":      string(sub.State),
		"tx_ref":     sub.TxRef,
		"error":      sub.Error,
		"error_kind": sub.ErrorKind,
		"attempts":   sub.Attempts,
		"created_at": sub.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": sub.UpdatedAt.Format(time.RFC3339Nano),
	}, nil
}

func mapToSubmission(m map[string]string) (*submission.Submission, error) {
	subID, err := id.ParseSubmissionID(m["id"])
	if err != nil {
		return nil, fmt.Errorf("bequest/redis: parse submission id: %w", err)
	}
	sessionID, err := id.ParseSessionID(m["session_id"])
	if err != nil {
		return nil, fmt.Errorf("bequest/redis: parse session id: %w", err)
	}

	var res *reconcile.Result
	if raw := m["result"]; raw != "" && raw != "null" {
		res = &reconcile.Result{}
		if err := json.Unmarshal([]byte(raw), res); err != nil {
			return nil, fmt.Errorf("bequest/redis: decode result: %w", err)
		}
	}

	attempts, _ := strconv.Atoi(m["attempts"])                     //nolint:errcheck // trusted Redis data
	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"]) //nolint:errcheck // trusted Redis data
	updatedAt, _ := time.Parse(time.RFC3339Nano, m["updated_at"]) //nolint:errcheck // trusted Redis data

	return &submission.Submission{
		ID:        subID,
		SessionID: sessionID,
		Owner:     m["owner"],
		Result:    res,
		State:     submission.State(m["state"]),
		TxRef:     m["tx_ref"],
		Error:     m["error"],
		ErrorKind: m["error_kind"],
		Attempts:  attempts,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
