package ws

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

type TokenVerifier interface {
	VerifyToken(token string) (*utils.Claims, error)
}

type ChatAccess interface {
	CheckAccess(courseID, userID uint) error
}

type ChatHandler struct {
	hub      *Hub
	access   ChatAccess
	tokens   TokenVerifier
	log      *utils.Logger
	upgrader websocket.Upgrader
}

// NewChatHandler accepts origins listed in allowedOrigins, or any origin
// when the list contains "*".
func NewChatHandler(hub *Hub, access ChatAccess, tokens TokenVerifier, allowedOrigins []string, log *utils.Logger) *ChatHandler {
	if log == nil {
		log = utils.NopLogger()
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &ChatHandler{
		hub:    hub,
		access: access,
		tokens: tokens,
		log:    log.With("handler", "ChatWebSocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// ServeChat upgrades GET /ws/chat/:courseId?token=... after checking the
// token and the enrollment.
func (h *ChatHandler) ServeChat(c *gin.Context) {
	courseID, err := strconv.ParseUint(c.Param("courseId"), 10, 64)
	if err != nil || courseID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid course ID"})
		return
	}
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Missing token"})
		return
	}
	claims, err := h.tokens.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
		return
	}
	if err := h.access.CheckAccess(uint(courseID), claims.UserID); err != nil {
		status := http.StatusInternalServerError
		msg := "Server error"
		if services.IsKind(err, services.KindForbidden) {
			status = http.StatusForbidden
			msg = "You must be enrolled to access chat"
		}
		c.JSON(status, gin.H{"success": false, "message": msg})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := h.hub.Register(uint(courseID), claims.UserID, conn)
	h.log.Debug("chat socket connected", "course_id", courseID, "user_id", claims.UserID)

	hello, _ := jsonFrame(gin.H{"type": "connected", "courseId": courseID})
	client.Send <- hello

	go h.hub.writePump(client)
	h.hub.readPump(client)
	h.log.Debug("chat socket disconnected", "course_id", courseID, "user_id", claims.UserID)
}
