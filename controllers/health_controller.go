package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/ws"
)

type HealthController struct {
	db  *gorm.DB
	hub *ws.Hub
}

func NewHealthController(db *gorm.DB, hub *ws.Hub) *HealthController {
	return &HealthController{db: db, hub: hub}
}

// Check pings the database. A failed ping yields 503 with status "degraded".
func (hc *HealthController) Check(c *gin.Context) {
	status, dbState, code := "ok", "up", http.StatusOK
	if sqlDB, err := hc.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status, dbState, code = "degraded", "down", http.StatusServiceUnavailable
	}
	body := gin.H{
		"success":   code == http.StatusOK,
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"db":        dbState,
	}
	if hc.hub != nil {
		body["websocket"] = hc.hub.Stats()
	}
	c.JSON(code, body)
}
