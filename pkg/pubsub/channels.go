package pubsub

import "time"

// Topics carrying domain events between services.
const (
	TopicPostLiked    = "post-liked-topic"
	TopicPostUnliked  = "post-unliked-topic"
	TopicUserFollowed = "user-followed-topic"
	TopicPostCreated  = "post-created-topic"
	TopicPostDeleted  = "post-deleted-topic"
)

// AllTopics lists every topic; publishers create them on startup.
var AllTopics = []string{
	TopicPostLiked,
	TopicPostUnliked,
	TopicUserFollowed,
	TopicPostCreated,
	TopicPostDeleted,
}

// Event types.
const (
	EventPostLiked    = "PostLiked"
	EventPostUnliked  = "PostUnliked"
	EventUserFollowed = "UserFollowed"
	EventPostCreated  = "PostCreated"
	EventPostDeleted  = "PostDeleted"
)

// PostLikedPayload is published by interaction-service after a like commits.
type PostLikedPayload struct {
	PostID      int64     `json:"postId"`
	UserID      int64     `json:"userId"`
	Username    string    `json:"username"`
	PostOwnerID int64     `json:"postOwnerId"`
	EventTime   time.Time `json:"eventTime"`
}

// PostUnlikedPayload is published by interaction-service after an unlike commits.
type PostUnlikedPayload struct {
	PostID    int64     `json:"postId"`
	UserID    int64     `json:"userId"`
	EventTime time.Time `json:"eventTime"`
}

// UserFollowedPayload is published by user-service after a follow commits.
type UserFollowedPayload struct {
	FollowerID        int64     `json:"followerId"`
	FollowingID       int64     `json:"followingId"`
	FollowerUsername  string    `json:"followerUsername"`
	FollowingUsername string    `json:"followingUsername"`
	EventTime         time.Time `json:"eventTime"`
}

// PostCreatedPayload is published by post-service after a post is stored.
type PostCreatedPayload struct {
	PostID    int64     `json:"postId"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl"`
	EventTime time.Time `json:"eventTime"`
}

// PostDeletedPayload is published by post-service after a post is removed.
type PostDeletedPayload struct {
	PostID    int64     `json:"postId"`
	UserID    int64     `json:"userId"`
	EventTime time.Time `json:"eventTime"`
}
