package peer

import (
	"context"
	"fmt"
	"time"
)

// UserView is the public view of a user returned by user-service.
type UserView struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Bio             string    `json:"bio"`
	ProfileImageURL string    `json:"profile_image_url"`
	CreatedAt       time.Time `json:"created_at"`
}

// PostView is the public view of a post returned by post-service.
type PostView struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// UserLookup resolves users owned by user-service.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*UserView, error)
}

// PostLookup resolves posts owned by post-service.
type PostLookup interface {
	GetPost(ctx context.Context, id int64) (*PostView, error)
}

// UserClient looks up users.
type UserClient struct {
	*Client
}

// NewUserClient creates a user-service client.
func NewUserClient(cfg Config) (*UserClient, error) {
	c, err := NewClient(UserService, cfg)
	if err != nil {
		return nil, err
	}
	return &UserClient{Client: c}, nil
}

// GetUser calls GET /api/v1/users/{id}.
func (c *UserClient) GetUser(ctx context.Context, id int64) (*UserView, error) {
	var u UserView
	if err := c.get(ctx, fmt.Sprintf("/api/v1/users/%d", id), fmt.Sprintf("user %d not found", id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// PostClient looks up posts.
type PostClient struct {
	*Client
}

// NewPostClient creates a post-service client.
func NewPostClient(cfg Config) (*PostClient, error) {
	c, err := NewClient(PostService, cfg)
	if err != nil {
		return nil, err
	}
	return &PostClient{Client: c}, nil
}

// GetPost calls GET /api/v1/posts/{id}.
func (c *PostClient) GetPost(ctx context.Context, id int64) (*PostView, error) {
	var p PostView
	if err := c.get(ctx, fmt.Sprintf("/api/v1/posts/%d", id), fmt.Sprintf("post %d not found", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
