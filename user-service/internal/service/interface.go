package service

import (
	"context"

	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/domain"
)

// UserService defines the interface for user business logic.
type UserService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserResponse, error)
	GetUser(ctx context.Context, userID int64) (*domain.UserResponse, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.UserResponse, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.UserResponse, error)
	ListUsers(ctx context.Context) ([]domain.UserResponse, error)
	UpdateUser(ctx context.Context, userID int64, req *domain.UpdateUserRequest) (*domain.UserResponse, error)
	ChangePassword(ctx context.Context, userID int64, req *domain.ChangePasswordRequest) error
	DeleteUser(ctx context.Context, userID int64) error
}

// FollowService defines the follow graph operations.
type FollowService interface {
	// Follow records that followerID follows followingID and announces it
	// with a UserFollowed event once the row is committed.
	Follow(ctx context.Context, followerID, followingID int64) (*domain.FollowResponse, error)
	Unfollow(ctx context.Context, followerID, followingID int64) error
	GetFollowers(ctx context.Context, userID int64) ([]domain.UserResponse, error)
	GetFollowing(ctx context.Context, userID int64) ([]domain.UserResponse, error)
	IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error)
	BatchIsFollowing(ctx context.Context, followerID int64, targetIDs []int64) (map[int64]bool, error)
	GetStats(ctx context.Context, userID int64) (*domain.FollowStats, error)
}
