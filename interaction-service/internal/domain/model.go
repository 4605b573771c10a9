package domain

import "time"

// LikeModel is the GORM model for the likes table. The composite unique
// index is the authoritative guard against duplicate likes.
type LikeModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:uidx_like_pair,priority:1"`
	PostID    int64     `gorm:"column:post_id;not null;uniqueIndex:uidx_like_pair,priority:2;index"`
	CreatedAt time.Time `gorm:"column:liked_at;autoCreateTime"`
}

func (LikeModel) TableName() string { return "likes" }

func (m *LikeModel) ToDomain() *Like {
	return &Like{
		ID:        m.ID,
		UserID:    m.UserID,
		PostID:    m.PostID,
		CreatedAt: m.CreatedAt,
	}
}
