package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/domain"
)

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based user repository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user and fills in its generated id and timestamps.
func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	model := domain.UserToModel(user)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return r.handleError(ctx, err, user)
	}

	user.ID = model.ID
	user.CreatedAt = model.CreatedAt
	user.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID retrieves a user by ID.
func (r *GormUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getBy(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by email.
func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email = ?", email)
}

// GetByUsername retrieves a user by username.
func (r *GormUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "username = ?", username)
}

func (r *GormUserRepository) getBy(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var model domain.UserModel
	if err := r.db.WithContext(ctx).First(&model, query, arg).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns all users ordered by id.
func (r *GormUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var models []domain.UserModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(models))
	for i := range models {
		users = append(users, models[i].ToDomain())
	}
	return users, nil
}

// GetByIDs returns the users among ids that exist, keyed by id.
func (r *GormUserRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error) {
	result := make(map[int64]*domain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var models []domain.UserModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	for i := range models {
		result[models[i].ID] = models[i].ToDomain()
	}
	return result, nil
}

// Update writes the mutable profile fields.
func (r *GormUserRepository) Update(ctx context.Context, user *domain.User) error {
	result := r.db.WithContext(ctx).Model(&domain.UserModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"username":          user.Username,
			"bio":               user.Bio,
			"profile_image_url": user.ProfileImageURL,
			"password_hash":     user.PasswordHash,
		})
	if result.Error != nil {
		return r.handleError(ctx, result.Error, user)
	}

	// Drivers differ on whether an unchanged row counts as affected, so
	// existence is decided by reading the row back.
	var updated domain.UserModel
	if err := r.db.WithContext(ctx).First(&updated, "id = ?", user.ID).Error; err != nil {
		if database.IsNotFound(err) {
			return ErrUserNotFound
		}
		if result.RowsAffected == 0 {
			return err
		}
		return nil
	}
	user.UpdatedAt = updated.UpdatedAt
	return nil
}

// Delete soft-deletes a user and obfuscates unique fields to allow re-registration.
func (r *GormUserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model domain.UserModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}

		suffix := fmt.Sprintf("_deleted_%d", id)
		if err := tx.Model(&domain.UserModel{}).Where("id = ?", id).Updates(map[string]interface{}{
			"email":    model.Email + suffix,
			"username": model.Username + suffix,
		}).Error; err != nil {
			return err
		}

		return tx.Delete(&domain.UserModel{}, "id = ?", id).Error
	})
}

// handleError converts a unique violation into the field-specific domain
// error. Translated driver errors no longer name the index, so the
// conflicting row is looked up.
func (r *GormUserRepository) handleError(ctx context.Context, err error, user *domain.User) error {
	if !database.IsUniqueViolation(err) {
		return err
	}

	var count int64
	if cerr := r.db.WithContext(ctx).Unscoped().Model(&domain.UserModel{}).
		Where("email = ? AND id <> ?", user.Email, user.ID).
		Count(&count).Error; cerr == nil && count > 0 {
		return ErrEmailExists
	}
	return ErrUsernameExists
}

var _ UserRepository = (*GormUserRepository)(nil)
