package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/domain"
)

var (
	ErrUserNotFound     = errs.New(errs.ErrNotFound, "user not found")
	ErrEmailExists      = errs.New(errs.ErrAlreadyExists, "email already exists")
	ErrUsernameExists   = errs.New(errs.ErrAlreadyExists, "username already exists")
	ErrFollowNotFound   = errs.New(errs.ErrNotFound, "not following this user")
	ErrAlreadyFollowing = errs.New(errs.ErrAlreadyExists, "already following this user")
)

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
}

// FollowRepository defines persistence operations for follow relationships.
type FollowRepository interface {
	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) FollowRepository
	Create(ctx context.Context, follow *domain.Follow) error
	Delete(ctx context.Context, followerID, followingID int64) error
	IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error)
	BatchIsFollowing(ctx context.Context, followerID int64, targetIDs []int64) (map[int64]bool, error)
	ListFollowers(ctx context.Context, userID int64) ([]*domain.Follow, error)
	ListFollowing(ctx context.Context, userID int64) ([]*domain.Follow, error)
	GetFollowersCount(ctx context.Context, userID int64) (int64, error)
	GetFollowingCount(ctx context.Context, userID int64) (int64, error)
}
