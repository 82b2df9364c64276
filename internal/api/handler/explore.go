package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/mirai/internal/service"
)

// ExploreHandler handles the public feed and search endpoints.
type ExploreHandler struct {
	explore *service.ExploreService
}

// NewExploreHandler creates a new explore handler.
// Parameters:
//   - explore: explore service instance.
// Returns:
//   - *ExploreHandler: initialized handler.
func NewExploreHandler(explore *service.ExploreService) *ExploreHandler {
	return &ExploreHandler{explore: explore}
}

// Feed handles GET /api/v1/explore.
func (h *ExploreHandler) Feed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	views, err := h.explore.Feed(c.Request.Context(), c.Query("tag"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"images": views,
		"count":  len(views),
	})
}

// Search handles GET /api/v1/search.
func (h *ExploreHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	views, err := h.explore.Search(c.Request.Context(), c.Query("q"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"images": views,
		"count":  len(views),
	})
}
