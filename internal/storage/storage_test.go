package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/config"
)

func TestGetContentType(t *testing.T) {
	tests := []struct {
		filePath string
		wantType string
	}{
		{"video.mp4", "video/mp4"},
		{"video.MOV", "video/quicktime"},
		{"video.avi", "video/x-msvideo"},
		{"video.mkv", "video/x-matroska"},
		{"video.webm", "video/webm"},
		{"thumb.jpg", "image/jpeg"},
		{"thumb.jpeg", "image/jpeg"},
		{"avatar.png", "image/png"},
		{"avatar.webp", "image/webp"},
		{"unknown.xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filePath, func(t *testing.T) {
			contentType := getContentType(tt.filePath)
			if contentType != tt.wantType {
				t.Errorf("getContentType(%q) = %q, want %q", tt.filePath, contentType, tt.wantType)
			}
		})
	}
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000", PublicBaseURL(config.StorageConfig{Endpoint: "localhost:9000"}))
	assert.Equal(t, "https://s3.example.com", PublicBaseURL(config.StorageConfig{Endpoint: "s3.example.com", UseSSL: true}))
	assert.Equal(t, "https://cdn.example.com", PublicBaseURL(config.StorageConfig{
		Endpoint: "minio:9000", PublicBaseURL: "https://cdn.example.com/",
	}))
}

func TestObjectURLRoundTrip(t *testing.T) {
	url := ObjectURL("http://localhost:9000/", "vidtube", "videos/abc.mp4")
	assert.Equal(t, "http://localhost:9000/vidtube/videos/abc.mp4", url)

	key, err := ObjectKey("http://localhost:9000", "vidtube", url)
	require.NoError(t, err)
	assert.Equal(t, "videos/abc.mp4", key)

	key, err = ObjectKey("http://localhost:9000", "vidtube", url+"?v=2")
	require.NoError(t, err)
	assert.Equal(t, "videos/abc.mp4", key)
}

func TestObjectKeyRejectsForeignURL(t *testing.T) {
	_, err := ObjectKey("http://localhost:9000", "vidtube", "https://elsewhere.example.com/vidtube/a.mp4")
	assert.ErrorIs(t, err, ErrForeignURL)

	_, err = ObjectKey("http://localhost:9000", "vidtube", "http://localhost:9000/other/a.mp4")
	assert.ErrorIs(t, err, ErrForeignURL)

	_, err = ObjectKey("http://localhost:9000", "vidtube", "http://localhost:9000/vidtube/")
	assert.ErrorIs(t, err, ErrForeignURL)
}
