package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyMiddleware guards the scanner facing endpoints. CI scanners send the
// shared key in X-API-Key. An empty expected key disables the check, which
// keeps local development friction free.
func APIKeyMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}

		key := c.GetHeader("X-API-Key")
		if key == "" || key != expected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok":    false,
				"error": "invalid API key",
			})
			return
		}

		c.Next()
	}
}
