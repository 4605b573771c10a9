package audit

import (
	"context"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
)

// Audit actions for user-service.
const (
	ActionRegister       = "user.register"
	ActionUpdateProfile  = "user.update_profile"
	ActionChangePassword = "user.change_password"
	ActionDeleteAccount  = "user.delete_account"
	ActionFollow         = "user.follow"
	ActionUnfollow       = "user.unfollow"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldTargetID = "target_id"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID int64, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Int64(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithTarget emits an audit log for an action one user takes on another.
func LogWithTarget(ctx context.Context, action string, userID, targetID int64, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Int64(log.FieldUserID, userID).
		Int64(FieldTargetID, targetID).
		Msg(msg)
}
