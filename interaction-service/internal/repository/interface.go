package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
)

var (
	ErrLikeExists   = errs.New(errs.ErrAlreadyExists, "user already liked this post")
	ErrLikeNotFound = errs.New(errs.ErrNotFound, "like not found")
)

// LikeRepository defines persistence operations for likes.
type LikeRepository interface {
	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) LikeRepository
	Create(ctx context.Context, like *domain.Like) error
	Delete(ctx context.Context, userID, postID int64) error
	// DeleteByPost removes every like of a post and returns how many went.
	DeleteByPost(ctx context.Context, postID int64) (int64, error)
	Exists(ctx context.Context, userID, postID int64) (bool, error)
	BatchHasLiked(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
	CountByPost(ctx context.Context, postID int64) (int64, error)
	ListByPost(ctx context.Context, postID int64) ([]*domain.Like, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Like, error)
}
