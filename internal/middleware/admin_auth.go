package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "jizhang/internal/errors"
)

// AdminKeyMiddleware guards operational endpoints with the X-API-Key header.
// With no key configured every request is refused.
func AdminKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, apperrors.ErrAdminNotConfigured)
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
