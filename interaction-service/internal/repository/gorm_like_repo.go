package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
)

// GormLikeRepository implements LikeRepository using GORM.
type GormLikeRepository struct {
	db *gorm.DB
}

// NewGormLikeRepository creates a new GORM-backed like repository.
func NewGormLikeRepository(db *gorm.DB) *GormLikeRepository {
	return &GormLikeRepository{db: db}
}

func (r *GormLikeRepository) WithTx(tx *gorm.DB) LikeRepository {
	return &GormLikeRepository{db: tx}
}

// Create inserts a like. A concurrent duplicate loses at the unique index
// and gets ErrLikeExists.
func (r *GormLikeRepository) Create(ctx context.Context, like *domain.Like) error {
	model := domain.LikeModel{
		UserID: like.UserID,
		PostID: like.PostID,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrLikeExists
		}
		return err
	}

	like.ID = model.ID
	like.CreatedAt = model.CreatedAt
	return nil
}

// Delete removes the like of userID on postID.
func (r *GormLikeRepository) Delete(ctx context.Context, userID, postID int64) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&domain.LikeModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLikeNotFound
	}
	return nil
}

func (r *GormLikeRepository) DeleteByPost(ctx context.Context, postID int64) (int64, error) {
	result := r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&domain.LikeModel{})
	return result.RowsAffected, result.Error
}

func (r *GormLikeRepository) Exists(ctx context.Context, userID, postID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.LikeModel{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// BatchHasLiked reports for each of postIDs whether userID liked it.
func (r *GormLikeRepository) BatchHasLiked(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(postIDs))
	for _, id := range postIDs {
		result[id] = false
	}

	if len(postIDs) == 0 {
		return result, nil
	}

	var models []domain.LikeModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	for _, m := range models {
		result[m.PostID] = true
	}
	return result, nil
}

func (r *GormLikeRepository) CountByPost(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.LikeModel{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}

// ListByPost returns the likes of a post, newest first.
func (r *GormLikeRepository) ListByPost(ctx context.Context, postID int64) ([]*domain.Like, error) {
	return r.list(ctx, "post_id = ?", postID)
}

// ListByUser returns the likes a user made, newest first.
func (r *GormLikeRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Like, error) {
	return r.list(ctx, "user_id = ?", userID)
}

func (r *GormLikeRepository) list(ctx context.Context, query string, id int64) ([]*domain.Like, error) {
	var models []domain.LikeModel
	if err := r.db.WithContext(ctx).Where(query, id).Order("id DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	likes := make([]*domain.Like, 0, len(models))
	for i := range models {
		likes = append(likes, models[i].ToDomain())
	}
	return likes, nil
}

var _ LikeRepository = (*GormLikeRepository)(nil)
