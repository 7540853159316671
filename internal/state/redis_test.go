package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	clock := newClock()
	store := NewRedisStore(client, time.Hour, WithRedisClock(clock.Now))

	_, err := store.Get(ctx, "+15550000001")
	assert.ErrorIs(t, err, ErrNotFound)

	proposed := time.Date(2024, time.May, 30, 11, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, Session{ID: "+15550000001", Stage: StageAwaitingName, ProposedStart: proposed, Name: "Ana"}))

	assert.True(t, mr.Exists(DefaultKeyPrefix+"+15550000001"))
	assert.Equal(t, time.Hour, mr.TTL(DefaultKeyPrefix+"+15550000001"))

	got, err := store.Get(ctx, "+15550000001")
	require.NoError(t, err)
	assert.Equal(t, StageAwaitingName, got.Stage)
	assert.Equal(t, "Ana", got.Name)
	assert.True(t, got.ProposedStart.Equal(proposed))
	assert.True(t, got.UpdatedAt.Equal(clock.Now()))

	require.NoError(t, store.Delete(ctx, "+15550000001"))
	_, err = store.Get(ctx, "+15550000001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	store := NewRedisStore(client, time.Hour)

	require.NoError(t, store.Put(ctx, Session{ID: "a", Stage: StageAwaitingDate}))
	mr.FastForward(59 * time.Minute)
	require.NoError(t, store.Put(ctx, Session{ID: "a", Stage: StageAwaitingConfirmation}))
	mr.FastForward(59 * time.Minute)

	_, err := store.Get(ctx, "a")
	require.NoError(t, err, "Put restarts the TTL")

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Count(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	store := NewRedisStore(client, time.Hour, WithKeyPrefix("test:"))

	require.NoError(t, mr.Set("unrelated", "x"))
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Put(ctx, Session{ID: id, Stage: StageAwaitingDate}))
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	store := NewRedisStore(client, time.Hour)

	require.NoError(t, mr.Set(DefaultKeyPrefix+"a", "{not json"))
	_, err := store.Get(ctx, "a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ServerDown(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	store := NewRedisStore(client, time.Hour)
	mr.Close()

	_, err := store.Get(ctx, "a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, store.Put(ctx, Session{ID: "a", Stage: StageIdle}))
}

func TestDialRedis(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := DialRedis(ctx, "redis://"+mr.Addr()+"/0", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, Session{ID: "a", Stage: StageIdle}))
	assert.NoError(t, store.Close())

	_, err = DialRedis(ctx, "not a url", time.Hour)
	assert.Error(t, err)
}

func TestStoresImplementInterface(t *testing.T) {
	var _ Store = (*MemoryStore)(nil)
	var _ Store = (*RedisStore)(nil)
}
