package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/utils"
)

// Recovery turns panics into the standard error envelope.
func Recovery(log *utils.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		if log != nil {
			log.Error("panic recovered",
				"panic", recovered,
				"path", c.Request.URL.Path,
				"request_id", c.GetString(ContextRequestID),
			)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
	})
}
