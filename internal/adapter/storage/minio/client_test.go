package minio

import (
	"strings"
	"testing"

	"github.com/GoArmGo/PhotoShare/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name       string
		hint       string
		wantPrefix string
		wantSuffix string
	}{
		{name: "owner and file", hint: "5f0c/sunset.JPG", wantPrefix: "photos/5f0c/", wantSuffix: ".jpg"},
		{name: "file only", hint: "beach.png", wantPrefix: "photos/", wantSuffix: ".png"},
		{name: "no extension", hint: "owner/blob", wantPrefix: "photos/owner/", wantSuffix: ""},
		{name: "path traversal is cleaned", hint: "../../etc/passwd.txt", wantPrefix: "photos/etc/", wantSuffix: ".txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := ObjectKey(tt.hint)
			assert.True(t, strings.HasPrefix(key, tt.wantPrefix), key)
			assert.True(t, strings.HasSuffix(key, tt.wantSuffix), key)
			assert.NotContains(t, key, "..")
		})
	}

	assert.NotEqual(t, ObjectKey("a/b.jpg"), ObjectKey("a/b.jpg"))
}

func TestObjectURLRoundTrip(t *testing.T) {
	c := &Client{bucketName: "photos", publicURL: "http://localhost:9000", logger: logger.Discard()}

	url := c.ObjectURL("photos/owner/abc.jpg")
	assert.Equal(t, "http://localhost:9000/photos/photos/owner/abc.jpg", url)

	key, err := c.KeyFromURL(url)
	require.NoError(t, err)
	assert.Equal(t, "photos/owner/abc.jpg", key)

	_, err = c.KeyFromURL("https://elsewhere.example.com/photos/owner/abc.jpg")
	assert.ErrorIs(t, err, ErrForeignURL)

	_, err = c.KeyFromURL("http://localhost:9000/photos/")
	assert.ErrorIs(t, err, ErrForeignURL)
}
