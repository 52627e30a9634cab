package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/middleware"
	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation, services.KindInsufficientBalance:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {success:false, message}. Causes of internal and
// upstream failures are logged, never sent.
func respondError(c *gin.Context, log *utils.Logger, err error) {
	var appErr *services.AppError
	if !errors.As(err, &appErr) {
		appErr = services.NewInternal(err)
	}
	status := statusFor(appErr.Kind)
	if log != nil && (appErr.Kind == services.KindInternal || appErr.Kind == services.KindUpstreamUnavailable) {
		log.Error("request failed",
			"path", c.FullPath(),
			"kind", appErr.Kind.String(),
			"request_id", c.GetString(middleware.ContextRequestID),
			"error", err,
		)
	}
	c.JSON(status, gin.H{"success": false, "message": appErr.Message})
}

func respondSuccess(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
}

// idParam parses a positive integer path parameter or writes a 400.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// currentUser is only called behind AuthMiddleware.
func currentUser(c *gin.Context) uint {
	id, _ := middleware.CurrentUserID(c)
	return id
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid request body")
		return false
	}
	return true
}

func queryInt(c *gin.Context, name string) int {
	var n int
	if _, err := fmt.Sscanf(c.Query(name), "%d", &n); err != nil {
		return 0
	}
	return n
}
