package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/domain"
)

// GormFollowRepository implements FollowRepository using GORM.
type GormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a new GORM-backed follow repository.
func NewGormFollowRepository(db *gorm.DB) *GormFollowRepository {
	return &GormFollowRepository{db: db}
}

func (r *GormFollowRepository) WithTx(tx *gorm.DB) FollowRepository {
	return &GormFollowRepository{db: tx}
}

// Create inserts a follow. A concurrent duplicate loses at the unique index
// and gets ErrAlreadyFollowing.
func (r *GormFollowRepository) Create(ctx context.Context, follow *domain.Follow) error {
	model := domain.FollowModel{
		FollowerID:  follow.FollowerID,
		FollowingID: follow.FollowingID,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrAlreadyFollowing
		}
		return err
	}

	follow.ID = model.ID
	follow.CreatedAt = model.CreatedAt
	return nil
}

// Delete removes a follow relationship between two users.
func (r *GormFollowRepository) Delete(ctx context.Context, followerID, followingID int64) error {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&domain.FollowModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFollowNotFound
	}
	return nil
}

// IsFollowing checks if followerID follows followingID.
func (r *GormFollowRepository) IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// BatchIsFollowing checks if followerID follows each of the targetIDs.
func (r *GormFollowRepository) BatchIsFollowing(ctx context.Context, followerID int64, targetIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(targetIDs))
	for _, id := range targetIDs {
		result[id] = false
	}

	if len(targetIDs) == 0 {
		return result, nil
	}

	var models []domain.FollowModel
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id IN ?", followerID, targetIDs).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	for _, m := range models {
		result[m.FollowingID] = true
	}
	return result, nil
}

// ListFollowers returns the follows pointing at userID, newest first.
func (r *GormFollowRepository) ListFollowers(ctx context.Context, userID int64) ([]*domain.Follow, error) {
	return r.list(ctx, "following_id = ?", userID)
}

// ListFollowing returns the follows made by userID, newest first.
func (r *GormFollowRepository) ListFollowing(ctx context.Context, userID int64) ([]*domain.Follow, error) {
	return r.list(ctx, "follower_id = ?", userID)
}

func (r *GormFollowRepository) list(ctx context.Context, query string, userID int64) ([]*domain.Follow, error) {
	var models []domain.FollowModel
	if err := r.db.WithContext(ctx).Where(query, userID).Order("id DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	follows := make([]*domain.Follow, 0, len(models))
	for i := range models {
		follows = append(follows, models[i].ToDomain())
	}
	return follows, nil
}

// GetFollowersCount returns the total number of followers for a given user.
func (r *GormFollowRepository) GetFollowersCount(ctx context.Context, userID int64) (int64, error) {
	return r.count(ctx, "following_id = ?", userID)
}

// GetFollowingCount returns how many users userID follows.
func (r *GormFollowRepository) GetFollowingCount(ctx context.Context, userID int64) (int64, error) {
	return r.count(ctx, "follower_id = ?", userID)
}

func (r *GormFollowRepository) count(ctx context.Context, query string, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).Where(query, userID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

var _ FollowRepository = (*GormFollowRepository)(nil)
