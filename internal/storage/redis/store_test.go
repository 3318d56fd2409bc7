package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photosite/backend/internal/config"
	"photosite/backend/internal/domain"
	"photosite/backend/internal/storage"
)

// newTestStore 连接 PHOTOSITE_TEST_REDIS_ADDR 指定的 Redis，未设置时跳过
func newTestStore(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("PHOTOSITE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PHOTOSITE_TEST_REDIS_ADDR not set, skipping Redis integration test")
	}

	client, err := New(&config.RedisConfig{Address: addr, DB: 15}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewStore(client)
}

func TestRedisStore_Session(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session := &domain.FormSession{
		ID:        uuid.NewString(),
		VisitorID: uuid.NewString(),
		Token:     uuid.NewString(),
		StartedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.SaveSession(ctx, session, time.Minute))
	t.Cleanup(func() { _ = store.DeleteSession(ctx, session.ID) })

	got, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Token, got.Token)
	assert.True(t, session.StartedAt.Equal(got.StartedAt))

	require.NoError(t, store.DeleteSession(ctx, session.ID))
	_, err = store.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestRedisStore_LastAccepted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	visitor := uuid.NewString()
	t.Cleanup(func() { store.rdb.Del(ctx, storage.LastSubmitKey(visitor)) })

	at, err := store.GetLastAccepted(ctx, visitor)
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	now := time.Now().Truncate(time.Millisecond)
	require.NoError(t, store.SetLastAccepted(ctx, visitor, now, time.Minute))

	raw, err := store.rdb.Get(ctx, storage.LastSubmitKey(visitor)).Result()
	require.NoError(t, err)
	assert.Equal(t, storage.EncodeTimestamp(now), raw)

	ttl, err := store.rdb.TTL(ctx, storage.LastSubmitKey(visitor)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "冷却记录应设置过期时间")
	assert.LessOrEqual(t, ttl, time.Minute)

	at, err = store.GetLastAccepted(ctx, visitor)
	require.NoError(t, err)
	assert.True(t, now.Equal(at))
}

func TestRedisStore_InFlight(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	session := uuid.NewString()
	t.Cleanup(func() { store.rdb.Del(ctx, inFlightKeyPrefix+session) })

	ok, err := store.AcquireInFlight(ctx, session, "owner-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.AcquireInFlight(ctx, session, "owner-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.ReleaseInFlight(ctx, session, "owner-b"))
	held, err := store.rdb.Get(ctx, inFlightKeyPrefix+session).Result()
	require.NoError(t, err)
	assert.Equal(t, "owner-a", held, "非持有者释放不应删除占用")

	require.NoError(t, store.ReleaseInFlight(ctx, session, "owner-a"))
	ok, err = store.AcquireInFlight(ctx, session, "owner-c", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
