package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

// PointsController serves both /points and /purchases.
type PointsController struct {
	points *services.PointsService
	log    *utils.Logger
}

func NewPointsController(points *services.PointsService, log *utils.Logger) *PointsController {
	return &PointsController{points: points, log: log}
}

func (pc *PointsController) Balance(c *gin.Context) {
	balance, err := pc.points.Balance(currentUser(c))
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"points": balance})
}

func (pc *PointsController) History(c *gin.Context) {
	txs, err := pc.points.History(currentUser(c))
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"transactions": txs})
}

func (pc *PointsController) Enroll(c *gin.Context) {
	courseID, ok := idParam(c, "courseId")
	if !ok {
		return
	}
	result, err := pc.points.Enroll(currentUser(c), courseID)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": result.Message, "pointsSpent": result.PointsSpent})
}

func (pc *PointsController) Complete(c *gin.Context) {
	courseID, ok := idParam(c, "courseId")
	if !ok {
		return
	}
	result, err := pc.points.CompleteCourse(currentUser(c), courseID)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": result.Message, "pointsEarned": result.PointsEarned})
}

func (pc *PointsController) MyPurchases(c *gin.Context) {
	rows, err := pc.points.MyEnrollments(currentUser(c))
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"purchases": rows})
}

func (pc *PointsController) MyPurchaseIDs(c *gin.Context) {
	ids, err := pc.points.MyEnrollmentIDs(currentUser(c))
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"purchaseIds": ids})
}
