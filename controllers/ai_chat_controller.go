package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

type AIChatController struct {
	ai  *services.AIChatService
	log *utils.Logger
}

func NewAIChatController(ai *services.AIChatService, log *utils.Logger) *AIChatController {
	return &AIChatController{ai: ai, log: log}
}

type completionRequest struct {
	Messages []services.AIMessage `json:"messages"`
}

func (ac *AIChatController) Completions(c *gin.Context) {
	var req completionRequest
	if !bindJSON(c, &req) {
		return
	}
	content, err := ac.ai.Complete(c.Request.Context(), req.Messages)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"content": content})
}
