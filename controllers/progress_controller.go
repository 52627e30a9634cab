package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

type ProgressController struct {
	progress *services.ProgressService
	log      *utils.Logger
}

func NewProgressController(progress *services.ProgressService, log *utils.Logger) *ProgressController {
	return &ProgressController{progress: progress, log: log}
}

func (pc *ProgressController) CourseProgress(c *gin.Context) {
	courseID, ok := idParam(c, "courseId")
	if !ok {
		return
	}
	progress, err := pc.progress.CourseProgress(currentUser(c), courseID)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"progress": progress})
}

func (pc *ProgressController) MarkComplete(c *gin.Context) {
	lessonID, ok := idParam(c, "lessonId")
	if !ok {
		return
	}
	if err := pc.progress.MarkLessonComplete(currentUser(c), lessonID); err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Lesson marked complete"})
}

func (pc *ProgressController) MarkIncomplete(c *gin.Context) {
	lessonID, ok := idParam(c, "lessonId")
	if !ok {
		return
	}
	if err := pc.progress.MarkLessonIncomplete(currentUser(c), lessonID); err != nil {
		respondError(c, pc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Lesson marked incomplete"})
}
