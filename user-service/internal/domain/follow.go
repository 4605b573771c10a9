package domain

import "time"

// Follow is the domain representation of a follow relationship.
type Follow struct {
	ID          int64
	FollowerID  int64
	FollowingID int64
	CreatedAt   time.Time
}

// FollowResponse is returned after a follow is recorded.
type FollowResponse struct {
	ID          int64     `json:"id"`
	FollowerID  int64     `json:"follower_id"`
	FollowingID int64     `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (f *Follow) ToResponse() FollowResponse {
	return FollowResponse{
		ID:          f.ID,
		FollowerID:  f.FollowerID,
		FollowingID: f.FollowingID,
		CreatedAt:   f.CreatedAt,
	}
}

// FollowStats holds a user's follow counts.
type FollowStats struct {
	UserID         int64 `json:"user_id"`
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
}
