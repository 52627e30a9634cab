package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	path        string
	contentType string
	data        []byte
	err         error
}

func (m *memoryStore) Upload(_ context.Context, objectPath, contentType string, data io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.path, m.contentType, m.data = objectPath, contentType, b
	return "https://cdn.example.com/" + objectPath, nil
}

func TestUploadImage(t *testing.T) {
	store := &memoryStore{}
	svc := NewUploadService(store)
	payload := []byte("\x89PNG fake")

	res, err := svc.UploadImage(context.Background(), "Avatar.PNG", "image/png", int64(len(payload)), bytes.NewReader(payload))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(store.path, "images/"))
	assert.True(t, strings.HasSuffix(res.Filename, ".png"))
	assert.Equal(t, "image/png", store.contentType)
	assert.Equal(t, payload, store.data)
	assert.Equal(t, "https://cdn.example.com/images/"+res.Filename, res.URL)
}

func TestUploadImage_Rejects(t *testing.T) {
	svc := NewUploadService(&memoryStore{})
	ctx := context.Background()

	tests := []struct {
		name        string
		filename    string
		contentType string
		size        int64
		kind        ErrorKind
	}{
		{"pdf", "doc.pdf", "application/pdf", 10, KindValidation},
		{"mismatched type", "photo.png", "text/html", 10, KindValidation},
		{"too large", "photo.jpg", "image/jpeg", MaxImageSize + 1, KindValidation},
		{"empty", "photo.gif", "image/gif", 0, KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadImage(ctx, tt.filename, tt.contentType, tt.size, strings.NewReader("x"))
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}

	_, err := NewUploadService(&memoryStore{err: errors.New("bucket missing")}).
		UploadImage(ctx, "photo.webp", "image/webp", 1, strings.NewReader("x"))
	assert.True(t, IsKind(err, KindUpstreamUnavailable))
}
