package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/service"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/response"
)

// Handler handles HTTP requests for the interaction service.
type Handler struct {
	svc service.LikeService
}

// NewHandler creates a new HTTP handler.
func NewHandler(svc service.LikeService) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers all routes onto the Gin engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		interactions := api.Group("/interactions")
		{
			interactions.POST("/like", h.Like)
			interactions.DELETE("/unlike", h.Unlike)
			interactions.GET("/check", h.HasLiked)
			interactions.GET("/post/:postId/likes", h.LikesByPost)
			interactions.GET("/post/:postId/count", h.LikeCount)
			interactions.GET("/user/:userId/likes", h.LikesByUser)
			interactions.POST("/user/:userId/liked-status", h.BatchHasLiked)
		}
	}
}

// Like handles POST /api/v1/interactions/like?userId=&postId=.
func (h *Handler) Like(c *gin.Context) {
	userID, postID, ok := pairFromQuery(c)
	if !ok {
		return
	}

	like, err := h.svc.Like(c.Request.Context(), userID, postID)
	if err != nil {
		response.FromError(c, err, "failed to like post")
		return
	}

	response.Created(c, like)
}

// Unlike handles DELETE /api/v1/interactions/unlike?userId=&postId=.
func (h *Handler) Unlike(c *gin.Context) {
	userID, postID, ok := pairFromQuery(c)
	if !ok {
		return
	}

	if err := h.svc.Unlike(c.Request.Context(), userID, postID); err != nil {
		response.FromError(c, err, "failed to unlike post")
		return
	}

	response.Message(c, "post unliked successfully")
}

// HasLiked handles GET /api/v1/interactions/check?userId=&postId=.
func (h *Handler) HasLiked(c *gin.Context) {
	userID, postID, ok := pairFromQuery(c)
	if !ok {
		return
	}

	liked, err := h.svc.HasLiked(c.Request.Context(), userID, postID)
	if err != nil {
		response.FromError(c, err, "failed to check like")
		return
	}

	response.Success(c, gin.H{"has_liked": liked})
}

func (h *Handler) LikesByPost(c *gin.Context) {
	postID, ok := response.PathID(c, "postId")
	if !ok {
		return
	}

	likes, err := h.svc.LikesByPost(c.Request.Context(), postID)
	if err != nil {
		response.FromError(c, err, "failed to get likes")
		return
	}

	response.Success(c, likes)
}

func (h *Handler) LikeCount(c *gin.Context) {
	postID, ok := response.PathID(c, "postId")
	if !ok {
		return
	}

	count, err := h.svc.LikeCount(c.Request.Context(), postID)
	if err != nil {
		response.FromError(c, err, "failed to count likes")
		return
	}

	response.Success(c, gin.H{"post_id": postID, "like_count": count})
}

func (h *Handler) LikesByUser(c *gin.Context) {
	userID, ok := response.PathID(c, "userId")
	if !ok {
		return
	}

	likes, err := h.svc.LikesByUser(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err, "failed to get likes")
		return
	}

	response.Success(c, likes)
}

// BatchHasLiked handles POST /api/v1/interactions/user/:userId/liked-status.
func (h *Handler) BatchHasLiked(c *gin.Context) {
	l := pkglog.Ctx(c.Request.Context())

	userID, ok := response.PathID(c, "userId")
	if !ok {
		return
	}

	var req domain.LikedStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid liked status request")
		response.BadRequest(c, err.Error())
		return
	}

	results, err := h.svc.BatchHasLiked(c.Request.Context(), userID, req.PostIDs)
	if err != nil {
		response.FromError(c, err, "failed to check liked status")
		return
	}

	response.Success(c, gin.H{"results": results})
}

func pairFromQuery(c *gin.Context) (userID, postID int64, ok bool) {
	if userID, ok = response.QueryID(c, "userId"); !ok {
		return 0, 0, false
	}
	if postID, ok = response.QueryID(c, "postId"); !ok {
		return 0, 0, false
	}
	return userID, postID, true
}
