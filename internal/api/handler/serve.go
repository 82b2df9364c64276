package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/mirai/internal/logger"
	"github.com/timmy/mirai/internal/storage"
)

// Generated images never change once written, so clients may cache
// them forever.
const serveCacheControl = "public, max-age=31536000, immutable"

// ServeHandler streams stored image blobs. Fallback path for
// deployments without a public bucket URL or CDN in front.
type ServeHandler struct {
	store storage.ObjectStorage
}

// NewServeHandler creates a new blob serving handler.
// Parameters:
//   - store: blob storage to read from.
// Returns:
//   - *ServeHandler: initialized handler.
func NewServeHandler(store storage.ObjectStorage) *ServeHandler {
	return &ServeHandler{store: store}
}

// Serve handles GET /api/v1/serve/*key.
// Parameters:
//   - c: Gin request context.
// Returns: none (streams the blob or writes an error).
func (h *ServeHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Object key is required",
		})
		return
	}

	body, info, err := h.store.Download(c.Request.Context(), key)
	if err != nil {
		if storage.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Object not found",
			})
			return
		}
		logger.CtxError(c.Request.Context(), "Blob download failed: key=%s, error=%v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	defer body.Close()

	if info.ETag != "" {
		c.Header("ETag", `"`+info.ETag+`"`)
		if match := c.GetHeader("If-None-Match"); match != "" && strings.Trim(match, `"`) == info.ETag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	c.Header("Cache-Control", serveCacheControl)
	c.Header("Content-Type", info.ContentType)
	if info.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		logger.CtxWarn(c.Request.Context(), "Blob stream interrupted: key=%s, error=%v", key, err)
	}
}
