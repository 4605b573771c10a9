// Package consumer turns follow and like events into notifications.
package consumer

import (
	"context"
	"fmt"

	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/dedup"
	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/service"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
)

// GroupID is the consumer group of notification-service.
const GroupID = "notification-service"

// EventHandler creates notifications from domain events.
//
// Without a deduper every delivery inserts a row, so a redelivered event
// produces a duplicate notification. With one, an event whose key was
// already claimed is dropped.
type EventHandler struct {
	notifications service.NotificationService
	deduper       dedup.Deduper
}

// NewEventHandler creates the handler. A nil deduper disables deduplication.
func NewEventHandler(notifications service.NotificationService, deduper dedup.Deduper) *EventHandler {
	if deduper == nil {
		deduper = dedup.Nop{}
	}
	return &EventHandler{notifications: notifications, deduper: deduper}
}

// Register subscribes the handler's topics on sub.
func (h *EventHandler) Register(sub pubsub.Subscriber) {
	sub.Handle(pubsub.TopicUserFollowed, h.HandleUserFollowed)
	sub.Handle(pubsub.TopicPostLiked, h.HandlePostLiked)
	sub.Handle(pubsub.TopicPostCreated, h.HandlePostCreated)
}

// HandleUserFollowed notifies the followed user.
func (h *EventHandler) HandleUserFollowed(ctx context.Context, e *pubsub.Event) error {
	var p pubsub.UserFollowedPayload
	if err := e.UnmarshalPayload(&p); err != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Msg("malformed UserFollowed payload; skipping")
		return nil
	}

	followerID := p.FollowerID
	return h.notify(ctx, e, &domain.Notification{
		UserID:        p.FollowingID,
		Type:          domain.TypeFollow,
		Message:       fmt.Sprintf("%s started following you!", p.FollowerUsername),
		RelatedUserID: &followerID,
	})
}

// HandlePostLiked notifies the owner of the liked post.
func (h *EventHandler) HandlePostLiked(ctx context.Context, e *pubsub.Event) error {
	var p pubsub.PostLikedPayload
	if err := e.UnmarshalPayload(&p); err != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Msg("malformed PostLiked payload; skipping")
		return nil
	}

	userID, postID := p.UserID, p.PostID
	return h.notify(ctx, e, &domain.Notification{
		UserID:        p.PostOwnerID,
		Type:          domain.TypePostLiked,
		Message:       fmt.Sprintf("%s liked your post!", p.Username),
		RelatedUserID: &userID,
		RelatedPostID: &postID,
	})
}

// HandlePostCreated only records the event. Follower fan-out is not built.
func (h *EventHandler) HandlePostCreated(ctx context.Context, e *pubsub.Event) error {
	var p pubsub.PostCreatedPayload
	if err := e.UnmarshalPayload(&p); err != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Msg("malformed PostCreated payload; skipping")
		return nil
	}

	l := pkglog.Ctx(ctx)
	l.Debug().Int64("post_id", p.PostID).Int64(pkglog.FieldUserID, p.UserID).Msg("post created")
	return nil
}

func (h *EventHandler) notify(ctx context.Context, e *pubsub.Event, n *domain.Notification) error {
	l := pkglog.Ctx(ctx).With().
		Str(pkglog.FieldEventType, e.Type).
		Int64(pkglog.FieldUserID, n.UserID).
		Logger()

	if n.UserID <= 0 {
		l.Warn().Msg("event without recipient; skipping")
		return nil
	}

	key := e.IdempotencyKey()
	claimed, err := h.deduper.Claim(ctx, key)
	if err != nil {
		return err
	}
	if !claimed {
		l.Info().Str("key", key).Msg("duplicate event; skipping")
		return nil
	}

	if _, err := h.notifications.Create(ctx, n); err != nil {
		if rerr := h.deduper.Release(ctx, key); rerr != nil {
			l.Warn().Err(rerr).Str("key", key).Msg("failed to release dedup key")
		}
		return err
	}

	l.Info().Str("type", n.Type).Msg("notification created")
	return nil
}
