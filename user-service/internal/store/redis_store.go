package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	followersCountKeyPrefix = "social:followers:"
	hotKeyScoresKey         = "social:hotkey:scores"
)

// FollowStore caches followers counts and tracks which users are read most.
type FollowStore interface {
	GetFollowersCount(ctx context.Context, userID int64) (int64, bool, error)
	SetFollowersCount(ctx context.Context, userID int64, count int64) error
	CondIncrFollowersCount(ctx context.Context, userID int64) error
	CondDecrFollowersCount(ctx context.Context, userID int64) error
	RecordAccess(ctx context.Context, userID int64) error
	GetTopHotKeys(ctx context.Context, n int64) ([]int64, error)
	ResetHotKeyScores(ctx context.Context) error
}

// RedisFollowStore implements FollowStore backed by Redis.
type RedisFollowStore struct {
	client *redis.Client
}

// NewRedisFollowStore creates a store on an existing client.
func NewRedisFollowStore(client *redis.Client) *RedisFollowStore {
	return &RedisFollowStore{client: client}
}

func followersCountKey(userID int64) string {
	return followersCountKeyPrefix + strconv.FormatInt(userID, 10)
}

// GetFollowersCount returns the cached followers count for a user.
// Returns (count, true, nil) on hit, (0, false, nil) on miss, (0, false, err) on error.
func (s *RedisFollowStore) GetFollowersCount(ctx context.Context, userID int64) (int64, bool, error) {
	val, err := s.client.Get(ctx, followersCountKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis get followers count: %w", err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse followers count: %w", err)
	}
	return count, true, nil
}

// SetFollowersCount sets the followers count for a user in Redis.
func (s *RedisFollowStore) SetFollowersCount(ctx context.Context, userID int64, count int64) error {
	if err := s.client.Set(ctx, followersCountKey(userID), count, 0).Err(); err != nil {
		return fmt.Errorf("redis set followers count: %w", err)
	}
	return nil
}

// condIncrScript increments the key only if it exists.
var condIncrScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 1 then
  return redis.call("INCR", key)
end
return 0
`)

// condDecrScript decrements the key only if it exists and stays >= 0.
var condDecrScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 1 then
  local val = tonumber(redis.call("GET", key))
  if val and val > 0 then
    return redis.call("DECR", key)
  end
end
return 0
`)

// CondIncrFollowersCount increments a cached count after a follow commits.
// A missing key stays missing so the next read loads the true count.
func (s *RedisFollowStore) CondIncrFollowersCount(ctx context.Context, userID int64) error {
	err := condIncrScript.Run(ctx, s.client, []string{followersCountKey(userID)}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis cond incr followers count: %w", err)
	}
	return nil
}

// CondDecrFollowersCount decrements a cached count after an unfollow commits.
func (s *RedisFollowStore) CondDecrFollowersCount(ctx context.Context, userID int64) error {
	err := condDecrScript.Run(ctx, s.client, []string{followersCountKey(userID)}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis cond decr followers count: %w", err)
	}
	return nil
}

// RecordAccess increments the access score for a user in the hot key sorted set.
func (s *RedisFollowStore) RecordAccess(ctx context.Context, userID int64) error {
	if err := s.client.ZIncrBy(ctx, hotKeyScoresKey, 1, strconv.FormatInt(userID, 10)).Err(); err != nil {
		return fmt.Errorf("redis record access: %w", err)
	}
	return nil
}

// GetTopHotKeys returns the top-n most accessed user IDs.
func (s *RedisFollowStore) GetTopHotKeys(ctx context.Context, n int64) ([]int64, error) {
	members, err := s.client.ZRevRange(ctx, hotKeyScoresKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get top hot keys: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ResetHotKeyScores deletes the hot key scores sorted set.
func (s *RedisFollowStore) ResetHotKeyScores(ctx context.Context) error {
	if err := s.client.Del(ctx, hotKeyScoresKey).Err(); err != nil {
		return fmt.Errorf("redis reset hot key scores: %w", err)
	}
	return nil
}

var _ FollowStore = (*RedisFollowStore)(nil)

// NoopFollowStore is used when no Redis is configured. Every read misses.
type NoopFollowStore struct{}

func (NoopFollowStore) GetFollowersCount(context.Context, int64) (int64, bool, error) {
	return 0, false, nil
}
func (NoopFollowStore) SetFollowersCount(context.Context, int64, int64) error { return nil }
func (NoopFollowStore) CondIncrFollowersCount(context.Context, int64) error   { return nil }
func (NoopFollowStore) CondDecrFollowersCount(context.Context, int64) error   { return nil }
func (NoopFollowStore) RecordAccess(context.Context, int64) error             { return nil }
func (NoopFollowStore) GetTopHotKeys(context.Context, int64) ([]int64, error) { return nil, nil }
func (NoopFollowStore) ResetHotKeyScores(context.Context) error               { return nil }

var _ FollowStore = NoopFollowStore{}
