package repository

import (
	"context"

	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
)

var ErrNotificationNotFound = errs.New(errs.ErrNotFound, "notification not found")

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id int64) (*domain.Notification, error)
	// ListByUser returns a user's notifications newest first, optionally
	// only the unread ones.
	ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*domain.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}
