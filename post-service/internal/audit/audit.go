package audit

import (
	"context"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
)

// Audit actions for post-service.
const (
	ActionCreatePost = "post.create"
	ActionUpdatePost = "post.update"
	ActionDeletePost = "post.delete"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldPostID = "post_id"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID, postID int64, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Int64(log.FieldUserID, userID).
		Int64(FieldPostID, postID).
		Msg(msg)
}
