package service

import (
	"context"
	"errors"

	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/repository"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
)

var ErrInvalidNotification = errs.New(errs.ErrInvalidOperation, "notification needs a recipient and a type")

type notificationService struct {
	repo repository.NotificationRepository
}

// NewNotificationService creates the notification service.
func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) Create(ctx context.Context, n *domain.Notification) (*domain.NotificationResponse, error) {
	if n.UserID <= 0 || n.Type == "" {
		return nil, ErrInvalidNotification
	}
	n.IsRead = false

	if err := s.repo.Create(ctx, n); err != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Int64(pkglog.FieldUserID, n.UserID).Str("type", n.Type).Msg("failed to create notification")
		return nil, err
	}

	resp := n.ToResponse()
	return &resp, nil
}

func (s *notificationService) ListByUser(ctx context.Context, userID int64) ([]domain.NotificationResponse, error) {
	return s.list(ctx, userID, false)
}

func (s *notificationService) ListUnread(ctx context.Context, userID int64) ([]domain.NotificationResponse, error) {
	return s.list(ctx, userID, true)
}

func (s *notificationService) list(ctx context.Context, userID int64, unreadOnly bool) ([]domain.NotificationResponse, error) {
	items, err := s.repo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Int64(pkglog.FieldUserID, userID).Bool("unread_only", unreadOnly).Msg("failed to list notifications")
		return nil, err
	}

	out := make([]domain.NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, n.ToResponse())
	}
	return out, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkAsRead flags one notification read and returns it. Marking an already
// read notification succeeds.
func (s *notificationService) MarkAsRead(ctx context.Context, id int64) (*domain.NotificationResponse, error) {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		if !errors.Is(err, repository.ErrNotificationNotFound) {
			l := pkglog.Ctx(ctx)
			l.Error().Err(err).Int64("notification_id", id).Msg("failed to mark notification read")
		}
		return nil, err
	}

	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := n.ToResponse()
	return &resp, nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Int64(pkglog.FieldUserID, userID).Msg("failed to mark notifications read")
		return 0, err
	}
	return n, nil
}

func (s *notificationService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
