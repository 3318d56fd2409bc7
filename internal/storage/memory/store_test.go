package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photosite/backend/internal/domain"
	"photosite/backend/internal/storage"
)

func TestMemoryStore_SessionOperations(t *testing.T) {
	store := NewStore()
	defer store.Close()
	ctx := context.Background()

	session := &domain.FormSession{
		ID:        "session-1",
		VisitorID: "visitor-1",
		Token:     "token-1",
		StartedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.SaveSession(ctx, session, time.Hour))

	got, err := store.GetSession(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, session.Token, got.Token)
	assert.Equal(t, session.VisitorID, got.VisitorID)
	assert.True(t, session.StartedAt.Equal(got.StartedAt))

	// 轮换令牌后覆盖
	session.Token = "token-2"
	require.NoError(t, store.SaveSession(ctx, session, time.Hour))
	got, err = store.GetSession(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "token-2", got.Token)

	require.NoError(t, store.DeleteSession(ctx, "session-1"))
	_, err = store.GetSession(ctx, "session-1")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestMemoryStore_LastAccepted(t *testing.T) {
	store := NewStore()
	defer store.Close()
	ctx := context.Background()

	at, err := store.GetLastAccepted(ctx, "visitor-1")
	require.NoError(t, err)
	assert.True(t, at.IsZero(), "从未提交过应返回零值")

	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetLastAccepted(ctx, "visitor-1", first, time.Hour))

	second := first.Add(time.Minute)
	require.NoError(t, store.SetLastAccepted(ctx, "visitor-1", second, time.Hour))

	at, err = store.GetLastAccepted(ctx, "visitor-1")
	require.NoError(t, err)
	assert.True(t, second.Equal(at))

	other, err := store.GetLastAccepted(ctx, "visitor-2")
	require.NoError(t, err)
	assert.True(t, other.IsZero())
}

func TestMemoryStore_LastAcceptedExpires(t *testing.T) {
	store := NewStore()
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.SetLastAccepted(ctx, "visitor-1", time.Now(), 20*time.Millisecond))

	assert.Eventually(t, func() bool {
		at, err := store.GetLastAccepted(ctx, "visitor-1")
		return err == nil && at.IsZero()
	}, time.Second, 10*time.Millisecond, "冷却记录应按 TTL 过期")
}

func TestMemoryStore_InFlight(t *testing.T) {
	store := NewStore()
	defer store.Close()
	ctx := context.Background()

	ok, err := store.AcquireInFlight(ctx, "session-1", "owner-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.AcquireInFlight(ctx, "session-1", "owner-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "投递中的会话不能再次占用")

	ok, err = store.AcquireInFlight(ctx, "session-2", "owner-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.ReleaseInFlight(ctx, "session-1", "owner-b"))
	ok, err = store.AcquireInFlight(ctx, "session-1", "owner-c", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "非持有者释放不应生效")

	require.NoError(t, store.ReleaseInFlight(ctx, "session-1", "owner-a"))
	ok, err = store.AcquireInFlight(ctx, "session-1", "owner-c", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_Ping(t *testing.T) {
	store := NewStore()
	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, store.Close())
}
