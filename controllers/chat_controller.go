package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

type ChatController struct {
	chat *services.ChatService
	log  *utils.Logger
}

func NewChatController(chat *services.ChatService, log *utils.Logger) *ChatController {
	return &ChatController{chat: chat, log: log}
}

func (cc *ChatController) Messages(c *gin.Context) {
	courseID, ok := idParam(c, "courseId")
	if !ok {
		return
	}
	messages, err := cc.chat.GetMessages(courseID, currentUser(c))
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"messages": messages})
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (cc *ChatController) Send(c *gin.Context) {
	courseID, ok := idParam(c, "courseId")
	if !ok {
		return
	}
	var req sendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := cc.chat.SendMessage(c.Request.Context(), courseID, currentUser(c), req.Message)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"message": view})
}
