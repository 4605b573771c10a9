package cache

import (
	"context"
	"time"

	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/domain"
)

type UserCacheResult struct {
	User domain.User `json:"user"`
}

// UserCache is a cache-aside store of user profiles keyed by id.
type UserCache interface {
	Get(ctx context.Context, key string) (*UserCacheResult, error)
	Set(ctx context.Context, key string, result *UserCacheResult, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	BuildKeyByID(userID int64) string
}

// NopUserCache always misses.
type NopUserCache struct{}

func (NopUserCache) Get(context.Context, string) (*UserCacheResult, error) { return nil, ErrCacheMiss }
func (NopUserCache) Set(context.Context, string, *UserCacheResult, time.Duration) error {
	return nil
}
func (NopUserCache) Delete(context.Context, ...string) error { return nil }
func (NopUserCache) BuildKeyByID(int64) string               { return "" }
