package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

type SearchLogController struct {
	logs *services.SearchLogService
	log  *utils.Logger
}

func NewSearchLogController(logs *services.SearchLogService, log *utils.Logger) *SearchLogController {
	return &SearchLogController{logs: logs, log: log}
}

func (sc *SearchLogController) List(c *gin.Context) {
	result, err := sc.logs.List(currentUser(c), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"logs": result.Logs, "pagination": result.Pagination})
}
