package middleware

import (
	"github.com/gin-gonic/gin"

	"elysian-backend/internal/shared/response"
)

// AdminMiddleware allows only admin and super_admin principals through.
// Must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get("role")
		if !ok {
			response.Forbidden(c, "admin role required")
			c.Abort()
			return
		}

		switch role {
		case "admin", "super_admin":
			c.Next()
		default:
			response.Forbidden(c, "admin role required")
			c.Abort()
		}
	}
}
