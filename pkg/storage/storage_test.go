package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageLifecycle(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir(), PublicURL: "http://localhost:8082/uploads/"})
	require.NoError(t, err)

	key := "posts/1/abc.png"
	require.NoError(t, s.Write(ctx, key, strings.NewReader("png"), 3, "image/png"))

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	url := s.ObjectURL(key)
	assert.Equal(t, "http://localhost:8082/uploads/posts/1/abc.png", url)

	got, ok := s.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, key, got)

	require.NoError(t, s.Delete(ctx, key))
	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting twice is fine.
	assert.NoError(t, s.Delete(ctx, key))
}

func TestLocalStorageStaysInBasePath(t *testing.T) {
	base := t.TempDir()
	s, err := NewLocalStorage(LocalConfig{BasePath: base})
	require.NoError(t, err)

	p := s.fullPath("../../etc/passwd")
	assert.True(t, strings.HasPrefix(p, s.BasePath()))
	assert.Equal(t, "", s.fullPath(".."))
}

func TestKeyFromForeignURL(t *testing.T) {
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir(), PublicURL: "http://localhost:8082/uploads"})
	require.NoError(t, err)

	_, ok := s.KeyFromURL("https://cdn.example.com/cat.jpg")
	assert.False(t, ok)
}

func TestObjectBase(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{"public url", S3Config{Bucket: "posts", PublicURL: "https://img.example.com/"}, "https://img.example.com/posts"},
		{"minio endpoint", S3Config{Bucket: "posts", Endpoint: "http://minio:9000"}, "http://minio:9000/posts"},
		{"aws", S3Config{Bucket: "posts", Region: "eu-west-1"}, "https://posts.s3.eu-west-1.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, objectBase(tt.cfg))
		})
	}
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "ftp"})
	assert.Error(t, err)
}
