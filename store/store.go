package store

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/event"
	"github.com/venu630/bequest/step"
	"github.com/venu630/bequest/store/memory"
	"github.com/venu630/bequest/store/redis"
	"github.com/venu630/bequest/submission"
	"github.com/venu630/bequest/workflow"
)

// Store is the aggregate persistence interface. A single backend
// implements every subsystem contract.
type Store interface {
	step.Store
	workflow.StateStore
	submission.Store
	event.Store

	// Migrate prepares the backend. Both backends are schemaless.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*redis.Store)(nil)
)

// Open builds the backend named by cfg.StoreDriver and checks that it is
// reachable. The returned close func releases resources Open created.
func Open(ctx context.Context, cfg bequest.Config, logger *slog.Logger) (Store, func() error, error) {
	switch cfg.StoreDriver {
	case "", "memory":
		return memory.New(), func() error { return nil }, nil

	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		s := redis.New(client,
			redis.WithLogger(logger),
			redis.WithSessionTTL(cfg.SessionTTL),
		)
		if err := s.Ping(ctx); err != nil {
			_ = client.Close() //nolint:errcheck // already failing
			return nil, nil, fmt.Errorf("bequest/store: ping redis %s: %w", cfg.RedisAddr, err)
		}
		return s, client.Close, nil

	default:
		return nil, nil, fmt.Errorf("bequest/store: unknown driver %q", cfg.StoreDriver)
	}
}
