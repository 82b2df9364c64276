package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/mirai/internal/api/middleware"
	"github.com/timmy/mirai/internal/service"
)

// UserHandler handles profile endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new user handler.
// Parameters:
//   - users: user service instance.
// Returns:
//   - *UserHandler: initialized handler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Get handles GET /api/v1/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type profileUpdateRequest struct {
	DisplayName *string `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
	Bio         *string `json:"bio"`
}

// Update handles PATCH /api/v1/users/:id. Users may only update their
// own profile.
func (h *UserHandler) Update(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	if c.Param("id") != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Cannot update another user's profile",
		})
		return
	}
	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), userID, &service.ProfileUpdate{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
		Bio:         req.Bio,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListImages handles GET /api/v1/users/:id/images.
func (h *UserHandler) ListImages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	views, err := h.users.ListImages(c.Request.Context(), middleware.UserID(c), c.Param("id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"images": views,
		"count":  len(views),
	})
}
