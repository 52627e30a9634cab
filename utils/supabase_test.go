package utils

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupabaseStorage_PublicURL(t *testing.T) {
	s := NewSupabaseStorage("https://proj.supabase.co/", "key", "uploads")
	assert.Equal(t,
		"https://proj.supabase.co/storage/v1/object/public/uploads/images/a.png",
		s.PublicURL("images/a.png"))
}

func TestSupabaseStorage_NotConfigured(t *testing.T) {
	s := NewSupabaseStorage("", "", "uploads")
	_, err := s.Upload(context.Background(), "images/a.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrStorageNotConfigured)
}

func TestSupabaseStorage_CancelledContext(t *testing.T) {
	s := NewSupabaseStorage("https://proj.supabase.co", "key", "uploads")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Upload(ctx, "images/a.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
