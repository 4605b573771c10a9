package domain

import "time"

// Notification types.
const (
	TypeFollow    = "FOLLOW"
	TypePostLiked = "POST_LIKED"
)

// NotificationModel is the GORM model for the notifications table.
type NotificationModel struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	UserID        int64     `gorm:"column:user_id;not null;index:idx_notifications_user_read,priority:1"`
	Type          string    `gorm:"column:type;type:varchar(32);not null"`
	Message       string    `gorm:"column:message;type:varchar(500);not null"`
	IsRead        bool      `gorm:"column:is_read;not null;default:false;index:idx_notifications_user_read,priority:2"`
	RelatedUserID *int64    `gorm:"column:related_user_id"`
	RelatedPostID *int64    `gorm:"column:related_post_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (NotificationModel) TableName() string { return "notifications" }

func (m *NotificationModel) ToDomain() *Notification {
	return &Notification{
		ID:            m.ID,
		UserID:        m.UserID,
		Type:          m.Type,
		Message:       m.Message,
		IsRead:        m.IsRead,
		RelatedUserID: m.RelatedUserID,
		RelatedPostID: m.RelatedPostID,
		CreatedAt:     m.CreatedAt,
	}
}

// Notification tells a user that something happened to them. UserID is the
// recipient; RelatedUserID is whoever caused it.
type Notification struct {
	ID            int64
	UserID        int64
	Type          string
	Message       string
	IsRead        bool
	RelatedUserID *int64
	RelatedPostID *int64
	CreatedAt     time.Time
}

// NotificationResponse is the notification view returned by the API.
type NotificationResponse struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Type          string    `json:"type"`
	Message       string    `json:"message"`
	IsRead        bool      `json:"is_read"`
	RelatedUserID *int64    `json:"related_user_id"`
	RelatedPostID *int64    `json:"related_post_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func (n *Notification) ToResponse() NotificationResponse {
	return NotificationResponse{
		ID:            n.ID,
		UserID:        n.UserID,
		Type:          n.Type,
		Message:       n.Message,
		IsRead:        n.IsRead,
		RelatedUserID: n.RelatedUserID,
		RelatedPostID: n.RelatedPostID,
		CreatedAt:     n.CreatedAt,
	}
}
