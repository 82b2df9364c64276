package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/mirai/internal/logger"
	"github.com/timmy/mirai/internal/service"
)

// writeError maps service errors to HTTP responses. Unrecognized errors
// become opaque 500s; their detail goes to the log, not the client.
func writeError(c *gin.Context, err error) {
	if rle, ok := service.AsRateLimitError(err); ok {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":     "Rate limit exceeded",
			"resetTime": rle.ResetTime.UTC().Format(time.RFC3339),
		})
		return
	}
	if service.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}
	if errors.Is(err, service.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": err.Error(),
		})
		return
	}

	logger.CtxError(c.Request.Context(), "Request failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
	})
}
