package handler

import (
	"github.com/gin-gonic/gin"

	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/response"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/service"
)

// Handler handles HTTP requests for user service.
type Handler struct {
	users   service.UserService
	follows service.FollowService
}

// NewHandler creates a new HTTP handler.
func NewHandler(users service.UserService, follows service.FollowService) *Handler {
	return &Handler{
		users:   users,
		follows: follows,
	}
}

// RegisterRoutes registers HTTP routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("/register", h.Register)
			users.GET("", h.ListUsers)
			users.GET("/:id", h.GetUser)
			users.GET("/username/:username", h.GetUserByUsername)
			users.GET("/email/:email", h.GetUserByEmail)
			users.PUT("/:id", h.UpdateUser)
			users.PUT("/:id/password", h.ChangePassword)
			users.DELETE("/:id", h.DeleteUser)

			users.POST("/:id/follow/:targetId", h.Follow)
			users.DELETE("/:id/unfollow/:targetId", h.Unfollow)
			users.GET("/:id/followers", h.GetFollowers)
			users.GET("/:id/following", h.GetFollowing)
			users.GET("/:id/stats", h.GetStats)
			users.GET("/:id/is-following/:targetId", h.IsFollowing)
			users.POST("/:id/following/status", h.BatchIsFollowing)
		}
	}
}

// Register handles user registration.
func (h *Handler) Register(c *gin.Context) {
	l := pkglog.Ctx(c.Request.Context())

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid register request")
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err, "failed to register user")
		return
	}

	response.Created(c, resp)
}

// ListUsers returns all users.
func (h *Handler) ListUsers(c *gin.Context) {
	resp, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		response.FromError(c, err, "failed to list users")
		return
	}
	response.Success(c, resp)
}

// GetUser is also the lookup endpoint other services call to verify a user.
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to get user")
		return
	}
	response.Success(c, resp)
}

func (h *Handler) GetUserByUsername(c *gin.Context) {
	resp, err := h.users.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.FromError(c, err, "failed to get user")
		return
	}
	response.Success(c, resp)
}

func (h *Handler) GetUserByEmail(c *gin.Context) {
	resp, err := h.users.GetUserByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.FromError(c, err, "failed to get user")
		return
	}
	response.Success(c, resp)
}

// UpdateUser updates the profile fields present in the body.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}

	var req domain.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.users.UpdateUser(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, err, "failed to update user")
		return
	}
	response.Success(c, resp)
}

// ChangePassword changes user password.
func (h *Handler) ChangePassword(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}

	var req domain.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), id, &req); err != nil {
		response.FromError(c, err, "failed to change password")
		return
	}
	response.Message(c, "password changed successfully")
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}

	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		response.FromError(c, err, "failed to delete user")
		return
	}
	response.Message(c, "user deleted successfully")
}

// Follow handles POST /api/v1/users/:id/follow/:targetId.
func (h *Handler) Follow(c *gin.Context) {
	followerID, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := response.PathID(c, "targetId")
	if !ok {
		return
	}

	resp, err := h.follows.Follow(c.Request.Context(), followerID, targetID)
	if err != nil {
		response.FromError(c, err, "failed to follow user")
		return
	}
	response.Created(c, resp)
}

// Unfollow handles DELETE /api/v1/users/:id/unfollow/:targetId.
func (h *Handler) Unfollow(c *gin.Context) {
	followerID, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := response.PathID(c, "targetId")
	if !ok {
		return
	}

	if err := h.follows.Unfollow(c.Request.Context(), followerID, targetID); err != nil {
		response.FromError(c, err, "failed to unfollow user")
		return
	}
	response.Message(c, "unfollowed successfully")
}

func (h *Handler) GetFollowers(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.follows.GetFollowers(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to get followers")
		return
	}
	response.Success(c, resp)
}

func (h *Handler) GetFollowing(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.follows.GetFollowing(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to get following")
		return
	}
	response.Success(c, resp)
}

func (h *Handler) GetStats(c *gin.Context) {
	id, ok := response.PathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.follows.GetStats(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to get follow stats")
		return
	}
	response.Success(c, resp)
}

func (h *Handler) IsFollowing(c *gin.Context) {
	followerID, ok := response.PathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := response.PathID(c, "targetId")
	if !ok {
		return
	}

	following, err := h.follows.IsFollowing(c.Request.Context(), followerID, targetID)
	if err != nil {
		response.FromError(c, err, "failed to check following status")
		return
	}
	response.Success(c, gin.H{"following": following})
}

// followingStatusRequest is the request body for POST /users/:id/following/status.
type followingStatusRequest struct {
	TargetIDs []int64 `json:"target_ids" binding:"required"`
}

// BatchIsFollowing handles POST /api/v1/users/:id/following/status.
func (h *Handler) BatchIsFollowing(c *gin.Context) {
	l := pkglog.Ctx(c.Request.Context())

	followerID, ok := response.PathID(c, "id")
	if !ok {
		return
	}

	var req followingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid following status request")
		response.BadRequest(c, err.Error())
		return
	}

	results, err := h.follows.BatchIsFollowing(c.Request.Context(), followerID, req.TargetIDs)
	if err != nil {
		response.FromError(c, err, "failed to check following status")
		return
	}
	response.Success(c, gin.H{"results": results})
}
