package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/mirai/internal/logger"
)

const userIDKey = "userID"

// Identity returns a middleware that extracts the platform-provided
// user identity from the X-User-ID header. Authentication itself
// happens upstream; an absent header means an anonymous caller.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if userID != "" {
			c.Set(userIDKey, userID)
			ctx := logger.SetUserID(c.Request.Context(), userID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// UserID returns the acting user ID, or empty for anonymous callers.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// RequireUser returns the acting user ID, aborting with 401 when the
// caller is anonymous.
// Parameters:
//   - c: Gin request context.
// Returns:
//   - string: acting user ID.
//   - bool: false if the request was aborted.
func RequireUser(c *gin.Context) (string, bool) {
	userID := UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return "", false
	}
	return userID, true
}
