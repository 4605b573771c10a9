// Package consumer keeps likes in step with events from post-service.
package consumer

import (
	"context"

	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/service"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
)

// GroupID is the consumer group of interaction-service.
const GroupID = "interaction-service"

// PostEventHandler reacts to post lifecycle events.
type PostEventHandler struct {
	likes service.LikeService
}

func NewPostEventHandler(likes service.LikeService) *PostEventHandler {
	return &PostEventHandler{likes: likes}
}

// Register subscribes the handler's topics on sub.
func (h *PostEventHandler) Register(sub pubsub.Subscriber) {
	sub.Handle(pubsub.TopicPostDeleted, h.HandlePostDeleted)
}

// HandlePostDeleted removes the likes of the deleted post. Deleting is
// idempotent, so redelivery is harmless.
func (h *PostEventHandler) HandlePostDeleted(ctx context.Context, e *pubsub.Event) error {
	l := pkglog.Ctx(ctx)

	var p pubsub.PostDeletedPayload
	if err := e.UnmarshalPayload(&p); err != nil {
		l.Error().Err(err).Msg("malformed PostDeleted payload; skipping")
		return nil
	}
	if p.PostID <= 0 {
		l.Warn().Int64("post_id", p.PostID).Msg("PostDeleted without post id; skipping")
		return nil
	}

	return h.likes.RemovePostLikes(ctx, p.PostID)
}
