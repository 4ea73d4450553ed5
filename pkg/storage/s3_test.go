package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLogoExtension(t *testing.T) {
	cases := []struct {
		contentType, filename, ext string
		ok                         bool
	}{
		{"image/png", "x.bin", ".png", true},
		{"IMAGE/JPEG", "", ".jpg", true},
		{"", "logo.SVG", ".svg", true},
		{"application/octet-stream", "logo.webp", ".webp", true},
		{"application/pdf", "menu.pdf", "", false},
		{"video/mp4", "clip.mp4", "", false},
	}
	for _, tc := range cases {
		ext, ok := LogoExtension(tc.contentType, tc.filename)
		assert.Equal(t, tc.ok, ok, "%s %s", tc.contentType, tc.filename)
		assert.Equal(t, tc.ext, ext)
	}
}

func TestLogoKey(t *testing.T) {
	id := uuid.New()
	key := LogoKey(id, ".png")
	assert.True(t, strings.HasPrefix(key, "logos/"+id.String()+"/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, LogoKey(id, ".png"))
}

func TestPublicURLRoundTrip(t *testing.T) {
	s := &S3{cfg: S3Config{Region: "ap-south-1", LogoBucket: "tk-logos"}}
	url := s.PublicObjectURL("logos/a/b.png")
	assert.Equal(t, "https://tk-logos.s3.ap-south-1.amazonaws.com/logos/a/b.png", url)
	key, ok := s.KeyFromURL(url)
	assert.True(t, ok)
	assert.Equal(t, "logos/a/b.png", key)

	_, ok = s.KeyFromURL("https://cdn.example.com/logo.png")
	assert.False(t, ok)

	s = &S3{cfg: S3Config{LogoBucket: "b", PublicBaseURL: "http://localhost:9000/b/"}}
	assert.Equal(t, "http://localhost:9000/b/logos/x.png", s.PublicObjectURL("logos/x.png"))
}
