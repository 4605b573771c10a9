package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/domain"
)

// GormPostRepository implements PostRepository using GORM.
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a new GORM-based post repository.
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) WithTx(tx *gorm.DB) PostRepository {
	return &GormPostRepository{db: tx}
}

// Create creates a new post.
func (r *GormPostRepository) Create(ctx context.Context, post *domain.Post) error {
	l := log.Ctx(ctx)

	model := domain.PostToModel(post)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Msg("failed to create post in db")
		return err
	}

	post.ID = model.ID
	post.CreatedAt = model.CreatedAt
	post.UpdatedAt = model.UpdatedAt
	l.Debug().Int64("post_id", post.ID).Msg("post created in db")
	return nil
}

// GetByID retrieves a post by ID.
func (r *GormPostRepository) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	var model domain.PostModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrPostNotFound
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Int64("post_id", id).Msg("failed to get post by id")
		return nil, err
	}
	return model.ToDomain(), nil
}

// List retrieves posts newest first. A pageSize of 0 returns every post.
func (r *GormPostRepository) List(ctx context.Context, page, pageSize int) ([]domain.Post, int, error) {
	l := log.Ctx(ctx)

	query := r.db.WithContext(ctx).Model(&domain.PostModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		l.Error().Err(err).Msg("failed to count posts")
		return nil, 0, err
	}

	q := query.Order("created_at DESC").Order("id DESC")
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	var models []domain.PostModel
	if err := q.Find(&models).Error; err != nil {
		l.Error().Err(err).Msg("failed to list posts from db")
		return nil, 0, err
	}

	posts := make([]domain.Post, len(models))
	for i := range models {
		posts[i] = *models[i].ToDomain()
	}
	return posts, int(total), nil
}

// ListByUser retrieves the posts of a user, newest first.
func (r *GormPostRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Post, error) {
	var models []domain.PostModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&models).Error
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Int64(log.FieldUserID, userID).Msg("failed to get user posts from db")
		return nil, err
	}

	posts := make([]domain.Post, len(models))
	for i := range models {
		posts[i] = *models[i].ToDomain()
	}
	return posts, nil
}

// Update writes content and image URL.
func (r *GormPostRepository) Update(ctx context.Context, post *domain.Post) error {
	result := r.db.WithContext(ctx).Model(&domain.PostModel{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"content":   post.Content,
			"image_url": post.ImageURL,
		})
	if result.Error != nil {
		return result.Error
	}

	// Drivers differ on whether an unchanged row counts as affected, so
	// existence is decided by reading the row back.
	var updated domain.PostModel
	if err := r.db.WithContext(ctx).First(&updated, "id = ?", post.ID).Error; err != nil {
		if database.IsNotFound(err) {
			return ErrPostNotFound
		}
		if result.RowsAffected == 0 {
			return err
		}
		return nil
	}
	post.UpdatedAt = updated.UpdatedAt
	return nil
}

// Delete removes a post.
func (r *GormPostRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&domain.PostModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

var _ PostRepository = (*GormPostRepository)(nil)
