package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

type UploadController struct {
	uploads *services.UploadService
	log     *utils.Logger
}

func NewUploadController(uploads *services.UploadService, log *utils.Logger) *UploadController {
	return &UploadController{uploads: uploads, log: log}
}

// Image expects multipart field "image".
func (uc *UploadController) Image(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxImageSize+1<<20)
	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			badRequest(c, "File too large (max 5MB)")
			return
		}
		badRequest(c, "No file uploaded")
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, uc.log, err)
		return
	}
	defer file.Close()

	result, err := uc.uploads.UploadImage(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		respondError(c, uc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"message":  "Image uploaded successfully",
		"url":      result.URL,
		"filename": result.Filename,
	})
}
