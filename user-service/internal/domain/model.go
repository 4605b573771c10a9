package domain

import (
	"time"

	"gorm.io/gorm"
)

// UserModel is the GORM model for users table.
type UserModel struct {
	ID              int64          `gorm:"primaryKey;autoIncrement"`
	Username        string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	Email           string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash    string         `gorm:"type:varchar(255);not null"`
	Bio             string         `gorm:"type:varchar(500)"`
	ProfileImageURL string         `gorm:"type:varchar(512)"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:              m.ID,
		Username:        m.Username,
		Email:           m.Email,
		PasswordHash:    m.PasswordHash,
		Bio:             m.Bio,
		ProfileImageURL: m.ProfileImageURL,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		Bio:             u.Bio,
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// FollowModel is the GORM model for the follows table. The composite unique
// index is the authoritative guard against duplicate follows.
type FollowModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	FollowerID  int64     `gorm:"column:follower_id;not null;uniqueIndex:uidx_follow_pair,priority:1"`
	FollowingID int64     `gorm:"column:following_id;not null;uniqueIndex:uidx_follow_pair,priority:2;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (FollowModel) TableName() string { return "follows" }

func (m *FollowModel) ToDomain() *Follow {
	return &Follow{
		ID:          m.ID,
		FollowerID:  m.FollowerID,
		FollowingID: m.FollowingID,
		CreatedAt:   m.CreatedAt,
	}
}
