package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *RedisFollowStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisFollowStore(client)
}

func TestConditionalCounts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// Missing key is left missing.
	require.NoError(t, s.CondIncrFollowersCount(ctx, 2))
	_, found, err := s.GetFollowersCount(ctx, 2)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SetFollowersCount(ctx, 2, 5))
	require.NoError(t, s.CondIncrFollowersCount(ctx, 2))
	count, found, err := s.GetFollowersCount(ctx, 2)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(6), count)

	require.NoError(t, s.SetFollowersCount(ctx, 3, 0))
	require.NoError(t, s.CondDecrFollowersCount(ctx, 3))
	count, _, err = s.GetFollowersCount(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "count never goes negative")
}

func TestHotKeys(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordAccess(ctx, 7))
	}
	require.NoError(t, s.RecordAccess(ctx, 9))

	top, err := s.GetTopHotKeys(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, top)

	require.NoError(t, s.ResetHotKeyScores(ctx))
	top, err = s.GetTopHotKeys(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}
