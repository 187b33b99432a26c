package redis

import (
	"context"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/venu630/bequest/event"
	"github.com/venu630/bequest/step"
	"github.com/venu630/bequest/submission"
	"github.com/venu630/bequest/workflow"
)

// Compile-time interface checks.
var (
	_ step.Store          = (*Store)(nil)
	_ workflow.StateStore = (*Store)(nil)
	_ submission.Store    = (*Store)(nil)
	_ event.Store         = (*Store)(nil)
)

// DefaultSessionTTL is how long an untouched session is kept.
const DefaultSessionTTL = 30 * time.Minute

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithSessionTTL sets how long session state and step records live after
// their last write. A non-positive ttl keeps them until cleared.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// Store implements the bequest store contracts backed by Redis.
type Store struct {
	client goredis.UniversalClient
	logger *slog.Logger
	ttl    time.Duration
}

// New creates a new Redis-backed store. The caller owns the Redis client
// lifecycle.
func New(client goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default(), ttl: DefaultSessionTTL}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.UniversalClient { return s.client }

// Migrate is a no-op for Redis (schemaless).
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op; the caller owns the Redis client lifecycle.
func (s *Store) Close() error { return nil }

// expire refreshes the session TTL on key inside pipe.
func (s *Store) expire(ctx context.Context, pipe goredis.Pipeliner, keys ...string) {
	if s.ttl <= 0 {
		return
	}
	for _, k := range keys {
		pipe.Expire(ctx, k, s.ttl)
	}
}
