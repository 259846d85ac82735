package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oguzk/tutorhub/internal/app/models/dto"
)

// JobAuth guards maintenance job endpoints with a shared bearer secret. With
// no secret configured the endpoints are disabled entirely.
func JobAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Job endpoints are disabled").
				WithDetails("No job secret configured")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}

		authHeader := c.GetHeader("Authorization")
		presented := strings.TrimPrefix(authHeader, "Bearer ")
		if presented == authHeader || subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Invalid job secret")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Next()
	}
}
