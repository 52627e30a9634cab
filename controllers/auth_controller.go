package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

type AuthController struct {
	auth *services.AuthService
	log  *utils.Logger
}

func NewAuthController(auth *services.AuthService, log *utils.Logger) *AuthController {
	return &AuthController{auth: auth, log: log}
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GoogleLoginInput struct {
	Credential string `json:"credential" binding:"required"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if !bindJSON(c, &input) {
		return
	}
	result, err := ac.auth.Register(input.Username, input.Email, input.Password)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"user": result.User, "token": result.Token})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if !bindJSON(c, &input) {
		return
	}
	result, err := ac.auth.Login(input.Email, input.Password)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": result.User, "token": result.Token})
}

func (ac *AuthController) GoogleLogin(c *gin.Context) {
	var input GoogleLoginInput
	if !bindJSON(c, &input) {
		return
	}
	result, err := ac.auth.GoogleLogin(c.Request.Context(), input.Credential)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": result.User, "token": result.Token})
}

func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.auth.Me(currentUser(c))
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user})
}
