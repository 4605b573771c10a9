package cache

import (
	"context"
	"time"

	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/domain"
)

type PostCacheResult struct {
	Post domain.Post `json:"post"`
}

// PostCache is a cache-aside store of posts keyed by id.
type PostCache interface {
	Get(ctx context.Context, key string) (*PostCacheResult, error)
	Set(ctx context.Context, key string, result *PostCacheResult, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	BuildKeyByID(postID int64) string
}

// NopPostCache always misses.
type NopPostCache struct{}

func (NopPostCache) Get(context.Context, string) (*PostCacheResult, error) { return nil, ErrCacheMiss }

func (NopPostCache) Set(context.Context, string, *PostCacheResult, time.Duration) error {
	return nil
}

func (NopPostCache) Delete(context.Context, ...string) error { return nil }

func (NopPostCache) BuildKeyByID(int64) string { return "" }
