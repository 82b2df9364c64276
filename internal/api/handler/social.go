package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/mirai/internal/api/middleware"
	"github.com/timmy/mirai/internal/service"
)

// SocialHandler handles like, comment, and follow endpoints.
type SocialHandler struct {
	social *service.SocialService
}

// NewSocialHandler creates a new social handler.
// Parameters:
//   - social: social service instance.
// Returns:
//   - *SocialHandler: initialized handler.
func NewSocialHandler(social *service.SocialService) *SocialHandler {
	return &SocialHandler{social: social}
}

// Like handles POST /api/v1/images/:id/like.
func (h *SocialHandler) Like(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	if err := h.social.Like(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Unlike handles DELETE /api/v1/images/:id/like.
func (h *SocialHandler) Unlike(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	if err := h.social.Unlike(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type commentRequest struct {
	Body string `json:"body"`
}

// CreateComment handles POST /api/v1/images/:id/comments.
func (h *SocialHandler) CreateComment(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}
	comment, err := h.social.Comment(c.Request.Context(), userID, c.Param("id"), req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListComments handles GET /api/v1/images/:id/comments.
func (h *SocialHandler) ListComments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	comments, err := h.social.ListComments(c.Request.Context(), middleware.UserID(c), c.Param("id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"count":    len(comments),
	})
}

// DeleteComment handles DELETE /api/v1/comments/:id.
func (h *SocialHandler) DeleteComment(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	if err := h.social.DeleteComment(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Follow handles POST /api/v1/users/:id/follow.
func (h *SocialHandler) Follow(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	if err := h.social.Follow(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Unfollow handles DELETE /api/v1/users/:id/follow.
func (h *SocialHandler) Unfollow(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	if err := h.social.Unfollow(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
