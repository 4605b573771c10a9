package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
)

// GormNotificationRepository implements NotificationRepository using GORM.
type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	model := domain.NotificationModel{
		UserID:        n.UserID,
		Type:          n.Type,
		Message:       n.Message,
		IsRead:        n.IsRead,
		RelatedUserID: n.RelatedUserID,
		RelatedPostID: n.RelatedPostID,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}

	n.ID = model.ID
	n.CreatedAt = model.CreatedAt
	return nil
}

func (r *GormNotificationRepository) GetByID(ctx context.Context, id int64) (*domain.Notification, error) {
	var model domain.NotificationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormNotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*domain.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var models []domain.NotificationModel
	if err := q.Order("created_at DESC").Order("id DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*domain.Notification, 0, len(models))
	for i := range models {
		out = append(out, models[i].ToDomain())
	}
	return out, nil
}

func (r *GormNotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead sets is_read on one notification. Marking an already read
// notification succeeds.
func (r *GormNotificationRepository) MarkRead(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Model(&domain.NotificationModel{}).
		Where("id = ?", id).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Drivers differ on whether an unchanged row counts as affected.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *GormNotificationRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&domain.NotificationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

var _ NotificationRepository = (*GormNotificationRepository)(nil)
