package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/event"
	"github.com/venu630/bequest/id"
)

// PublishEvent persists a new event and adds it to the name's stream.
func (s *Store) PublishEvent(ctx context.Context, evt *event.Event) error {
	eID := evt.ID.String()
	key := eventKey(eID)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"id", eID,
		"name", evt.Name,
		"payload", string(evt.Payload),
		"source", evt.Source,
		"acked", "0",
		"created_at", evt.CreatedAt.Format(time.RFC3339Nano),
	)
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: eventStreamKey(evt.Name),
		Values: map[string]interface{}{
			"event_id": eID,
		},
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("bequest/redis: publish event: %w", err)
	}
	return nil
}

// SubscribeEvent waits for the oldest unacked event matching name. The
// stream is scanned in insertion order and acked entries are trimmed from
// it as they are passed over.
func (s *Store) SubscribeEvent(ctx context.Context, name string, timeout time.Duration) (*event.Event, error) {
	stream := eventStreamKey(name)
	deadline := time.Now().Add(timeout)

	for {
		msgs, err := s.client.XRangeN(ctx, stream, "-", "+", 50).Result()
		if err != nil {
			return nil, fmt.Errorf("bequest/redis: subscribe xrange: %w", err)
		}

		for _, msg := range msgs {
			eID, ok := msg.Values["event_id"].(string)
			if !ok {
				continue
			}
			vals, hErr := s.client.HGetAll(ctx, eventKey(eID)).Result()
			if hErr != nil {
				return nil, fmt.Errorf("bequest/redis: subscribe get: %w", hErr)
			}
			if len(vals) == 0 || vals["acked"] == "1" {
				s.client.XDel(ctx, stream, msg.ID)
				continue
			}
			return mapToEvent(vals)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		if err := sleepCtx(ctx, min(50*time.Millisecond, remaining)); err != nil {
			return nil, err
		}
	}
}

// AckEvent acknowledges an event, marking it as consumed.
func (s *Store) AckEvent(ctx context.Context, eventID id.EventID) error {
	key := eventKey(eventID.String())

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("bequest/redis: ack event exists: %w", err)
	}
	if exists == 0 {
		return bequest.ErrEventNotFound
	}

	if _, err := s.client.HSet(ctx, key, "acked", "1").Result(); err != nil {
		return fmt.Errorf("bequest/redis: ack event: %w", err)
	}
	return nil
}

// sleepCtx sleeps for d, or returns the context error if ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func mapToEvent(m map[string]string) (*event.Event, error) {
	eID, err := id.ParseEventID(m["id"])
	if err != nil {
		return nil, fmt.Errorf("bequest/redis: parse event id: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"]) //nolint:errcheck // best-effort parse from trusted Redis data

	return &event.Event{
		ID:        eID,
		Name:      m["name"],
		Payload:   []byte(m["payload"]),
		Source:    m["source"],
		Acked:     m["acked"] == "1",
		CreatedAt: createdAt,
	}, nil
}
