package service

import (
	"context"

	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/domain"
)

// NotificationService is the notification surface of the service. Create
// is called only by the event consumers.
type NotificationService interface {
	Create(ctx context.Context, n *domain.Notification) (*domain.NotificationResponse, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.NotificationResponse, error)
	ListUnread(ctx context.Context, userID int64) ([]domain.NotificationResponse, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkAsRead(ctx context.Context, id int64) (*domain.NotificationResponse, error)
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}
