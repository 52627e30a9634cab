package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/models"
	"github.com/knowway/knowway-backend/utils"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
)

type TokenVerifier interface {
	VerifyToken(token string) (*utils.Claims, error)
}

// bearerToken reads Authorization, falling back to X-Auth-Token for clients
// that strip the standard header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		header = c.GetHeader("X-Auth-Token")
	}
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
}

// AuthMiddleware rejects requests without a valid bearer token. When db is
// set the account must still exist.
func AuthMiddleware(tokens TokenVerifier, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			unauthorized(c, "Access denied. No token provided.")
			return
		}
		claims, err := tokens.VerifyToken(raw)
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}
		if db != nil {
			var count int64
			if err := db.Model(&models.User{}).Where("id = ?", claims.UserID).Count(&count).Error; err != nil {
				// RequestLogger reports the cause
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
				return
			}
			if count == 0 {
				unauthorized(c, "User not found")
				return
			}
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the user when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuthMiddleware(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if claims, err := tokens.VerifyToken(raw); err == nil {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextEmail, claims.Email)
			}
		}
		c.Next()
	}
}

func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
