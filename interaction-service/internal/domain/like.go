package domain

import "time"

// Like records that a user liked a post.
type Like struct {
	ID        int64
	UserID    int64
	PostID    int64
	CreatedAt time.Time
}

// LikeResponse is the like view returned by the API.
type LikeResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	PostID    int64     `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *Like) ToResponse(username string) LikeResponse {
	return LikeResponse{
		ID:        l.ID,
		UserID:    l.UserID,
		Username:  username,
		PostID:    l.PostID,
		CreatedAt: l.CreatedAt,
	}
}

// LikedStatusRequest asks which of the given posts a user has liked.
type LikedStatusRequest struct {
	PostIDs []int64 `json:"post_ids" binding:"required,max=100"`
}
