package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/mirai/internal/api/middleware"
	"github.com/timmy/mirai/internal/service"
)

// ImageHandler handles image read and delete endpoints.
type ImageHandler struct {
	images *service.ImageService
}

// NewImageHandler creates a new image handler.
// Parameters:
//   - images: image service instance.
// Returns:
//   - *ImageHandler: initialized handler.
func NewImageHandler(images *service.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

// Get handles GET /api/v1/images/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ImageHandler) Get(c *gin.Context) {
	view, err := h.images.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Delete handles DELETE /api/v1/images/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ImageHandler) Delete(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	if err := h.images.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
