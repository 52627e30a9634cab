package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/models"
)

type RoleSource interface {
	Resolve(userID uint) models.UserRole
}

// RequireRoles must run after AuthMiddleware. The role is resolved per
// request so changes apply without a new token.
func RequireRoles(roles RoleSource, allowed ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			unauthorized(c, "Access denied. No token provided.")
			return
		}
		role := roles.Resolve(userID)
		for _, r := range allowed {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied"})
	}
}
