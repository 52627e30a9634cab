package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

type LessonController struct {
	lessons *services.LessonService
	log     *utils.Logger
}

func NewLessonController(lessons *services.LessonService, log *utils.Logger) *LessonController {
	return &LessonController{lessons: lessons, log: log}
}

func (lc *LessonController) ListByCourse(c *gin.Context) {
	courseID, ok := idParam(c, "courseId")
	if !ok {
		return
	}
	lessons, err := lc.lessons.ListByCourse(courseID)
	if err != nil {
		respondError(c, lc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"lessons": lessons})
}

func (lc *LessonController) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	detail, err := lc.lessons.Get(id)
	if err != nil {
		respondError(c, lc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"lesson":     detail.Lesson,
		"prevLesson": detail.PrevLesson,
		"nextLesson": detail.NextLesson,
	})
}

func (lc *LessonController) Create(c *gin.Context) {
	var input services.LessonInput
	if !bindJSON(c, &input) {
		return
	}
	lesson, err := lc.lessons.Create(currentUser(c), input)
	if err != nil {
		respondError(c, lc.log, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"message": "Lesson created successfully", "lessonId": lesson.ID})
}

func (lc *LessonController) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input services.LessonInput
	if !bindJSON(c, &input) {
		return
	}
	if _, err := lc.lessons.Update(currentUser(c), id, input); err != nil {
		respondError(c, lc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Lesson updated"})
}

func (lc *LessonController) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := lc.lessons.Delete(currentUser(c), id); err != nil {
		respondError(c, lc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Lesson deleted"})
}
