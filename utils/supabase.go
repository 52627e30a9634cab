package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

var ErrStorageNotConfigured = errors.New("supabase storage is not configured")

// SupabaseStorage uploads objects into one public bucket.
type SupabaseStorage struct {
	baseURL string
	bucket  string
	client  *storage.Client
}

func NewSupabaseStorage(baseURL, key, bucket string) *SupabaseStorage {
	baseURL = strings.TrimRight(baseURL, "/")
	s := &SupabaseStorage{baseURL: baseURL, bucket: bucket}
	if baseURL != "" && key != "" {
		s.client = storage.NewClient(baseURL+"/storage/v1", key, nil)
	}
	return s
}

// Upload stores data at objectPath and returns its public URL.
func (s *SupabaseStorage) Upload(ctx context.Context, objectPath, contentType string, data io.Reader) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrStorageNotConfigured
	}
	// storage-go has no context support; bail out early if the request is gone
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_, err := s.client.UploadFile(s.bucket, objectPath, data, storage.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return s.PublicURL(objectPath), nil
}

func (s *SupabaseStorage) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath)
}
