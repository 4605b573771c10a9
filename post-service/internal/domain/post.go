package domain

import (
	"time"
)

// Post is a piece of content published by a user.
type Post struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatePostRequest represents a create post request.
type CreatePostRequest struct {
	UserID   int64  `json:"user_id" binding:"required,gt=0"`
	Content  string `json:"content" binding:"required,min=1,max=1000"`
	ImageURL string `json:"image_url" binding:"omitempty,max=512"`
}

// UpdatePostRequest represents an update. An empty content is ignored.
type UpdatePostRequest struct {
	Content  *string `json:"content" binding:"omitempty,max=1000"`
	ImageURL *string `json:"image_url" binding:"omitempty,max=512"`
}

// ListPostsRequest represents a list posts request.
type ListPostsRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// PresignImageRequest asks for an upload URL for a post image.
type PresignImageRequest struct {
	UserID      int64  `json:"user_id" binding:"required,gt=0"`
	ContentType string `json:"content_type" binding:"required"`
}

// PresignImageResponse tells the client where to PUT the image and the URL
// to store on the post afterwards.
type PresignImageResponse struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
	ImageURL  string `json:"image_url"`
	ExpiresIn int    `json:"expires_in"`
}

// PostResponse represents a post in API responses. It is also the view
// other services receive from the post lookup endpoint.
type PostResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListPostsResponse represents a paginated list response.
type ListPostsResponse struct {
	Posts      []PostResponse `json:"posts"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// ToResponse converts Post to PostResponse.
func (p *Post) ToResponse(username string) PostResponse {
	return PostResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		Username:  username,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
