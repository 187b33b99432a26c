package store_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/store"
	"github.com/venu630/bequest/store/memory"
	"github.com/venu630/bequest/store/redis"
)

func TestOpen_Memory(t *testing.T) {
	s, closeFn, err := store.Open(context.Background(), bequest.DefaultConfig(), slog.Default())
	require.NoError(t, err)
	defer closeFn() //nolint:errcheck // test cleanup

	assert.IsType(t, &memory.Store{}, s)
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := bequest.DefaultConfig()
	cfg.StoreDriver = "redis"
	cfg.RedisAddr = mr.Addr()

	s, closeFn, err := store.Open(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer closeFn() //nolint:errcheck // test cleanup

	assert.IsType(t, &redis.Store{}, s)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpen_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := bequest.DefaultConfig()
	cfg.StoreDriver = "redis"
	cfg.RedisAddr = addr

	_, _, err := store.Open(context.Background(), cfg, slog.Default())
	assert.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := bequest.DefaultConfig()
	cfg.StoreDriver = "postgres"

	_, _, err := store.Open(context.Background(), cfg, slog.Default())
	assert.ErrorContains(t, err, `unknown driver "postgres"`)
}
