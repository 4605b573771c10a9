package service

import (
	"context"
	"io"

	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/domain"
)

// PostService defines the interface for post business logic.
type PostService interface {
	CreatePost(ctx context.Context, req *domain.CreatePostRequest) (*domain.PostResponse, error)
	GetPost(ctx context.Context, postID int64) (*domain.PostResponse, error)
	ListPosts(ctx context.Context, page, pageSize int) (*domain.ListPostsResponse, error)
	ListUserPosts(ctx context.Context, userID int64) ([]domain.PostResponse, error)
	UpdatePost(ctx context.Context, postID int64, req *domain.UpdatePostRequest) (*domain.PostResponse, error)
	DeletePost(ctx context.Context, postID int64) error
}

// ImageService hands out upload locations for post images.
type ImageService interface {
	PresignUpload(ctx context.Context, req *domain.PresignImageRequest) (*domain.PresignImageResponse, error)
	// Upload stores an image sent through the service itself, used when
	// images live on the local filesystem.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}
