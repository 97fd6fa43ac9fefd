package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAPIKey creates a middleware that gates device-facing endpoints
// on a shared x-api-key header
func RequireAPIKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader("x-api-key")
		if presented == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "API key is required"})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid API key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
