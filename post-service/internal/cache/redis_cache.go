package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

type RedisPostCache struct {
	client *redis.Client
	prefix string
}

// NewRedisPostCache creates a cache on an existing client.
func NewRedisPostCache(client *redis.Client, prefix string) *RedisPostCache {
	return &RedisPostCache{
		client: client,
		prefix: prefix,
	}
}

func (c *RedisPostCache) BuildKeyByID(postID int64) string {
	return fmt.Sprintf("%s:id:%d", c.prefix, postID)
}

func (c *RedisPostCache) Get(ctx context.Context, key string) (*PostCacheResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var result PostCacheResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &result, nil
}

func (c *RedisPostCache) Set(ctx context.Context, key string, result *PostCacheResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

func (c *RedisPostCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}

	return nil
}
