package service

import (
	"context"

	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/domain"
)

// LikeService defines the business logic for likes.
type LikeService interface {
	Like(ctx context.Context, userID, postID int64) (*domain.LikeResponse, error)
	Unlike(ctx context.Context, userID, postID int64) error
	LikesByPost(ctx context.Context, postID int64) ([]domain.LikeResponse, error)
	LikeCount(ctx context.Context, postID int64) (int64, error)
	HasLiked(ctx context.Context, userID, postID int64) (bool, error)
	BatchHasLiked(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
	LikesByUser(ctx context.Context, userID int64) ([]domain.LikeResponse, error)
	// RemovePostLikes drops the likes of a deleted post.
	RemovePostLikes(ctx context.Context, postID int64) error
}
