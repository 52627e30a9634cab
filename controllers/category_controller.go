package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

type CategoryController struct {
	categories *services.CategoryService
	log        *utils.Logger
}

func NewCategoryController(categories *services.CategoryService, log *utils.Logger) *CategoryController {
	return &CategoryController{categories: categories, log: log}
}

func (cc *CategoryController) List(c *gin.Context) {
	categories, err := cc.categories.List()
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"categories": categories})
}

func (cc *CategoryController) Create(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
		Code string `json:"code"`
	}
	if !bindJSON(c, &input) {
		return
	}
	category, err := cc.categories.Create(currentUser(c), input.Name, input.Code)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"message": "Category created", "category": category})
}
