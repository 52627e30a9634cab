package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

type CourseController struct {
	courses *services.CourseService
	log     *utils.Logger
}

func NewCourseController(courses *services.CourseService, log *utils.Logger) *CourseController {
	return &CourseController{courses: courses, log: log}
}

// List supports ?category=&level=&free=&search=&status=&sort=&page=&limit=
func (cc *CourseController) List(c *gin.Context) {
	result, err := cc.courses.List(services.CourseFilter{
		Category: c.Query("category"),
		Level:    c.Query("level"),
		Free:     c.Query("free"),
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Sort:     c.Query("sort"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"courses": result.Courses, "pagination": result.Pagination})
}

func (cc *CourseController) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	course, err := cc.courses.Get(id)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"course": course})
}

func (cc *CourseController) Create(c *gin.Context) {
	var input services.CourseInput
	if !bindJSON(c, &input) {
		return
	}
	course, err := cc.courses.Create(currentUser(c), input)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"message": "Course created", "courseId": course.ID, "course": course})
}

func (cc *CourseController) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input services.CourseInput
	if !bindJSON(c, &input) {
		return
	}
	course, err := cc.courses.Update(currentUser(c), id, input)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Course updated", "course": course})
}

func (cc *CourseController) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := cc.courses.Delete(currentUser(c), id); err != nil {
		respondError(c, cc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Course deleted"})
}
