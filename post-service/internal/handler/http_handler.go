package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/response"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/service"
)

// Handler handles HTTP requests for post service.
type Handler struct {
	postService  service.PostService
	imageService service.ImageService
}

// NewHandler creates a new HTTP handler.
func NewHandler(postService service.PostService, imageService service.ImageService) *Handler {
	return &Handler{
		postService:  postService,
		imageService: imageService,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		posts := api.Group("/posts")
		{
			posts.POST("", h.CreatePost)
			posts.GET("", h.ListPosts)
			posts.GET("/:id", h.GetPost)
			posts.GET("/user/:userId", h.GetUserPosts)
			posts.PUT("/:id", h.UpdatePost)
			posts.DELETE("/:id", h.DeletePost)
			posts.POST("/images/presign", h.PresignImage)
		}
	}
}

// RegisterUploadRoutes accepts image uploads under prefix. Only used when
// images are stored on the local filesystem.
func (h *Handler) RegisterUploadRoutes(r *gin.Engine, prefix string) {
	r.PUT(strings.TrimSuffix(prefix, "/")+"/*key", h.UploadImage)
}

// CreatePost creates a new post.
func (h *Handler) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind create post request")
		response.BadRequest(c, err.Error())
		return
	}

	post, err := h.postService.CreatePost(ctx, &req)
	if err != nil {
		response.FromError(c, err, "failed to create post")
		return
	}

	response.Created(c, post)
}

// GetPost retrieves a post by ID.
func (h *Handler) GetPost(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}

	post, err := h.postService.GetPost(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to get post")
		return
	}

	response.Success(c, post)
}

// ListPosts lists posts, newest first. Without page_size every post is returned.
func (h *Handler) ListPosts(c *gin.Context) {
	var req domain.ListPostsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.postService.ListPosts(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		response.FromError(c, err, "failed to list posts")
		return
	}

	response.Success(c, resp)
}

// GetUserPosts lists the posts of one user.
func (h *Handler) GetUserPosts(c *gin.Context) {
	userID, ok := response.PathID(c, "userId")
	if !ok {
		return
	}

	posts, err := h.postService.ListUserPosts(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err, "failed to get user posts")
		return
	}

	response.Success(c, posts)
}

// UpdatePost updates a post.
func (h *Handler) UpdatePost(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}

	var req domain.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	post, err := h.postService.UpdatePost(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, err, "failed to update post")
		return
	}

	response.Success(c, post)
}

// DeletePost deletes a post.
func (h *Handler) DeletePost(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}

	if err := h.postService.DeletePost(c.Request.Context(), id); err != nil {
		response.FromError(c, err, "failed to delete post")
		return
	}

	response.Message(c, "post deleted successfully")
}

// PresignImage returns an upload URL for a post image.
func (h *Handler) PresignImage(c *gin.Context) {
	var req domain.PresignImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.imageService.PresignUpload(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err, "failed to generate upload url")
		return
	}

	response.Success(c, resp)
}

// UploadImage stores the request body under the key in the path.
func (h *Handler) UploadImage(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	err := h.imageService.Upload(c.Request.Context(), key, c.Request.Body, c.Request.ContentLength, c.ContentType())
	if err != nil {
		response.FromError(c, err, "failed to upload image")
		return
	}

	response.Message(c, "image uploaded")
}
