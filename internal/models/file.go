package models

import (
	"path"
	"strings"
	"time"
)

type ContentType string

const (
	ContentTypePNG  ContentType = "image/png"
	ContentTypeJPEG ContentType = "image/jpeg"
	ContentTypeJPG  ContentType = "image/jpg"
	ContentTypeGIF  ContentType = "image/gif"
	ContentTypeSVG  ContentType = "image/svg+xml"
)

var allowedContentTypes = map[ContentType]struct{}{
	ContentTypePNG:  {},
	ContentTypeJPEG: {},
	ContentTypeJPG:  {},
	ContentTypeGIF:  {},
	ContentTypeSVG:  {},
}

// Allowed reports whether ct is on the image allow-list. Parameters such as
// charset are ignored.
func (ct ContentType) Allowed() bool {
	_, ok := allowedContentTypes[ct.Base()]
	return ok
}

func (ct ContentType) Base() ContentType {
	s := string(ct)
	if idx := strings.Index(s, ";"); idx >= 0 {
		s = s[:idx]
	}
	return ContentType(strings.ToLower(strings.TrimSpace(s)))
}

// File is a stored upload. Filename is the public name used in share links and
// as the blob key; OriginalName is display metadata only.
type File struct {
	ID           string
	UserID       string
	Filename     string
	OriginalName string
	FileType     ContentType
	FileSize     int64
	UploadDate   time.Time
	Views        int64
}

// Extension returns the lower-cased extension of the client supplied name,
// including the leading dot. Names without an extension, or with one that is
// not short and alphanumeric, yield "".
func Extension(originalName string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(originalName, "\\", "/")))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

type StorageUsage struct {
	UsedBytes      int64
	LimitBytes     int64
	RemainingBytes int64
}
