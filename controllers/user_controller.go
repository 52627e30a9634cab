package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/models"
	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

type UserController struct {
	users *services.UserService
	log   *utils.Logger
}

func NewUserController(users *services.UserService, log *utils.Logger) *UserController {
	return &UserController{users: users, log: log}
}

func (uc *UserController) List(c *gin.Context) {
	users, err := uc.users.ListUsers(currentUser(c))
	if err != nil {
		respondError(c, uc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"users": users})
}

func (uc *UserController) UpdateRole(c *gin.Context) {
	targetID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		Role models.UserRole `json:"role"`
	}
	if !bindJSON(c, &input) {
		return
	}
	if err := uc.users.UpdateUserRole(currentUser(c), targetID, input.Role); err != nil {
		respondError(c, uc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "User role updated"})
}

func (uc *UserController) MyRole(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"role": uc.users.MyRole(currentUser(c))})
}
