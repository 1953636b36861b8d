package sniffer

import (
	"bytes"
	"errors"
	"strings"

	"pixeldust/internal/models"
)

// HeadSize is how many leading bytes Detect needs to make a decision.
const HeadSize = 512

var ErrUnknownType = errors.New("unknown media type")

// Detect identifies the image format from its magic bytes. Formats outside the
// upload allow-list are still reported so callers can refuse them explicitly.
func Detect(head []byte) (models.ContentType, error) {
	if len(head) > HeadSize {
		head = head[:HeadSize]
	}
	switch {
	case len(head) == 0:
		return "", ErrUnknownType
	case isJPEG(head):
		return models.ContentTypeJPEG, nil
	case isPNG(head):
		return models.ContentTypePNG, nil
	case isGIF(head):
		return models.ContentTypeGIF, nil
	case isWEBP(head):
		return "image/webp", nil
	case isSVG(head):
		return models.ContentTypeSVG, nil
	}
	return "", ErrUnknownType
}

// Matches reports whether payload content agrees with the declared type.
// image/jpg is treated as an alias of image/jpeg.
func Matches(declared models.ContentType, head []byte) bool {
	detected, err := Detect(head)
	if err != nil {
		return false
	}
	return normalize(declared.Base()) == normalize(detected)
}

func normalize(ct models.ContentType) models.ContentType {
	if ct == models.ContentTypeJPG {
		return models.ContentTypeJPEG
	}
	return ct
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return bytes.HasPrefix(head, pngMagic)
}

func isGIF(head []byte) bool {
	return bytes.HasPrefix(head, []byte("GIF87a")) || bytes.HasPrefix(head, []byte("GIF89a"))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}

func isSVG(head []byte) bool {
	trimmed := strings.ToLower(strings.TrimSpace(string(bytes.TrimPrefix(head, []byte("\xef\xbb\xbf")))))
	if strings.HasPrefix(trimmed, "<svg") {
		return true
	}
	return (strings.HasPrefix(trimmed, "<?xml") || strings.HasPrefix(trimmed, "<!doctype svg")) &&
		strings.Contains(trimmed, "<svg")
}
