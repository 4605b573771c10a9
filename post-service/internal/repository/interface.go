package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/domain"
)

var ErrPostNotFound = errs.New(errs.ErrNotFound, "post not found")

// PostRepository defines the interface for post data persistence.
type PostRepository interface {
	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) PostRepository
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id int64) (*domain.Post, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Post, int, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id int64) error
}
