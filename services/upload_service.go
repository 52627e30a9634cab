package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const MaxImageSize = 5 << 20

var allowedImages = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageStore is satisfied by utils.SupabaseStorage.
type ImageStore interface {
	Upload(ctx context.Context, objectPath, contentType string, data io.Reader) (string, error)
}

type UploadResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

type UploadService struct {
	store ImageStore
}

func NewUploadService(store ImageStore) *UploadService {
	return &UploadService{store: store}
}

// UploadImage checks type and size, then stores under images/<uuid><ext>.
func (s *UploadService) UploadImage(ctx context.Context, filename, contentType string, size int64, data io.Reader) (*UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	expected, ok := allowedImages[ext]
	if !ok {
		return nil, NewValidation("Only image files are allowed (jpeg, jpg, png, gif, webp)")
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "image/jpg" {
		contentType = "image/jpeg"
	}
	if contentType != "" && contentType != "application/octet-stream" && contentType != expected {
		return nil, NewValidation("Only image files are allowed (jpeg, jpg, png, gif, webp)")
	}
	if size <= 0 {
		return nil, NewValidation("No file uploaded")
	}
	if size > MaxImageSize {
		return nil, NewValidation("File too large (max 5MB)")
	}
	if s.store == nil {
		return nil, NewUpstream("Image storage is not configured", errors.New("no image store"))
	}

	name := uuid.NewString() + ext
	url, err := s.store.Upload(ctx, "images/"+name, expected, io.LimitReader(data, MaxImageSize))
	if err != nil {
		return nil, NewUpstream("Upload failed", fmt.Errorf("store image: %w", err))
	}
	return &UploadResult{URL: url, Filename: name}, nil
}
