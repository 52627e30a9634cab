package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

type FavoriteController struct {
	favorites *services.FavoriteService
	log       *utils.Logger
}

func NewFavoriteController(favorites *services.FavoriteService, log *utils.Logger) *FavoriteController {
	return &FavoriteController{favorites: favorites, log: log}
}

func (fc *FavoriteController) Add(c *gin.Context) {
	courseID, ok := idParam(c, "courseId")
	if !ok {
		return
	}
	if err := fc.favorites.Add(currentUser(c), courseID); err != nil {
		respondError(c, fc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Added to favorites"})
}

func (fc *FavoriteController) Remove(c *gin.Context) {
	courseID, ok := idParam(c, "courseId")
	if !ok {
		return
	}
	if err := fc.favorites.Remove(currentUser(c), courseID); err != nil {
		respondError(c, fc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Removed from favorites"})
}

func (fc *FavoriteController) List(c *gin.Context) {
	courses, err := fc.favorites.List(currentUser(c))
	if err != nil {
		respondError(c, fc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"favorites": courses})
}

func (fc *FavoriteController) IDs(c *gin.Context) {
	ids, err := fc.favorites.IDs(currentUser(c))
	if err != nil {
		respondError(c, fc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"favoriteIds": ids})
}
