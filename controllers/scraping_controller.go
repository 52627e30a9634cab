package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

type ScrapingController struct {
	scraping *services.ScrapingService
	log      *utils.Logger
}

func NewScrapingController(scraping *services.ScrapingService, log *utils.Logger) *ScrapingController {
	return &ScrapingController{scraping: scraping, log: log}
}

type triggerScrapeRequest struct {
	URL      string `json:"url"`
	Category string `json:"category"`
}

func (sc *ScrapingController) Trigger(c *gin.Context) {
	var req triggerScrapeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := sc.scraping.Trigger(c.Request.Context(), currentUser(c), req.URL, req.Category); err != nil {
		respondError(c, sc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Scraping triggered successfully"})
}

func (sc *ScrapingController) Webhook(c *gin.Context) {
	if err := sc.scraping.VerifyWebhook(c.GetHeader(services.WebhookTokenHeader)); err != nil {
		respondError(c, sc.log, err)
		return
	}
	var input services.ScrapedInput
	if !bindJSON(c, &input) {
		return
	}
	row, err := sc.scraping.Receive(input)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Data saved", "id": row.ID})
}

func (sc *ScrapingController) List(c *gin.Context) {
	result, err := sc.scraping.List(c.Query("category"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"data":       result.Data,
		"total":      result.Total,
		"pagination": result.Pagination,
	})
}

func (sc *ScrapingController) Mine(c *gin.Context) {
	rows, err := sc.scraping.Mine(currentUser(c))
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"data": rows})
}

func (sc *ScrapingController) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := sc.scraping.Delete(currentUser(c), id); err != nil {
		respondError(c, sc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Deleted"})
}
