package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeAllowed(t *testing.T) {
	tests := []struct {
		ct   ContentType
		want bool
	}{
		{"image/png", true},
		{"image/jpeg", true},
		{"image/jpg", true},
		{"image/gif", true},
		{"image/svg+xml", true},
		{"IMAGE/PNG; charset=binary", true},
		{"image/webp", false},
		{"text/html", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ct.Allowed(), string(tt.ct))
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"cat.png":          ".png",
		"CAT.PNG":          ".png",
		"archive.tar.gif":  ".gif",
		"noext":            "",
		"dir\\evil.jpg":    ".jpg",
		"weird.p/ng":       "",
		"trailing.":        "",
		"spaces.j pg":      "",
		"long.abcdefghijk": "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Extension(in), in)
	}
}
