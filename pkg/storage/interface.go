package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Storage stores post images.
type Storage interface {
	// Write stores content from the reader with the given key.
	// The size parameter is the expected content size (-1 if unknown).
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Delete removes the content with the given key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if content with the given key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// GetUploadURL returns a URL the client can PUT the content to directly.
	GetUploadURL(ctx context.Context, key, contentType string, expires time.Duration) (string, error)

	// ObjectURL returns the stable public URL stored on a post.
	ObjectURL(key string) string

	// KeyFromURL reverses ObjectURL. It reports false for URLs that do not
	// point into this store, such as images hosted elsewhere.
	KeyFromURL(url string) (string, bool)
}

// Config selects and configures a backend.
type Config struct {
	Driver string      `mapstructure:"driver"` // "s3", "local"
	S3     S3Config    `mapstructure:"s3"`
	Local  LocalConfig `mapstructure:"local"`
}

// New opens the configured backend.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	case "local", "":
		return NewLocalStorage(cfg.Local)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
