package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/repos"
)

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	key := Scope("u-alice", "k1")

	id, err := s.Reserve(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, id)

	_, err = s.Reserve(ctx, key)
	assert.ErrorIs(t, err, ErrInFlight)

	require.NoError(t, s.Complete(ctx, key, "order-1"))
	id, err = s.Reserve(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "order-1", id)

	// Release must not drop a completed key.
	require.NoError(t, s.Release(ctx, key))
	id, err = s.Reserve(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "order-1", id)

	other := Scope("u-bob", "k1")
	id, err = s.Reserve(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, id)
	require.NoError(t, s.Release(ctx, other))
	id, err = s.Reserve(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, id, "released key can be claimed again")
}

func TestSQLStore(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()
	exercise(t, NewSQLStore(db))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	exercise(t, NewRedisStore(client, time.Hour))
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	s := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	_, err := s.Reserve(ctx, "u:k")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	id, err := s.Reserve(ctx, "u:k")
	require.NoError(t, err)
	assert.Empty(t, id)
}
