package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pixeldust/internal/config"
	"pixeldust/internal/models"
	"pixeldust/internal/service"
	"pixeldust/internal/storage"
)

const (
	urlLengthHeader = "X-URL-Length"
	// room for the multipart envelope around the largest accepted object
	multipartOverhead = 1 * config.MiB
)

type fileResponse struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	FileType     string    `json:"file_type"`
	FileSize     int64     `json:"file_size"`
	UploadDate   time.Time `json:"upload_date"`
	Views        int64     `json:"views"`
	URL          string    `json:"url"`
}

func toFileResponse(f models.File) fileResponse {
	return fileResponse{
		ID:           f.ID,
		Filename:     f.Filename,
		OriginalName: f.OriginalName,
		FileType:     string(f.FileType),
		FileSize:     f.FileSize,
		UploadDate:   f.UploadDate,
		Views:        f.Views,
		URL:          "/img/" + f.Filename,
	}
}

func parseURLLength(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > storage.MaxNameLength {
		return 0, fmt.Errorf("%s must be between 1 and %d: %w", urlLengthHeader, storage.MaxNameLength, service.ErrInvalidInput)
	}
	return n, nil
}

func (h HandlerSet) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	nameLength, err := parseURLLength(c.GetHeader(urlLengthHeader))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Quota.ObjectCeilingBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, fmt.Errorf("request body over %d bytes: %w", tooLarge.Limit, service.ErrQuotaExceeded))
			return
		}
		badRequest(c, fmt.Errorf("multipart field \"file\" required: %w", err))
		return
	}

	body, err := fh.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer body.Close()

	file, err := h.uploads.Upload(c.Request.Context(), service.UploadInput{
		UserID:       user.ID,
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
		Body:         body,
		NameLength:   nameLength,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"file":    toFileResponse(file),
	})
}

// ServeImage is the share link target used by embeds.
func (h HandlerSet) ServeImage(c *gin.Context) {
	h.serveByName(c)
}

func (h HandlerSet) ServeRaw(c *gin.Context) {
	h.serveByName(c)
}

func (h HandlerSet) serveByName(c *gin.Context) {
	obj, err := h.files.Retrieve(c.Request.Context(), c.Param("filename"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	writeObject(c, obj, map[string]string{
		"Cache-Control":          "public, max-age=31536000",
		"X-Content-Type-Options": "nosniff",
	})
}

func writeObject(c *gin.Context, obj service.Object, extra map[string]string) {
	defer obj.Body.Close()

	headers := map[string]string{
		"Content-Disposition": contentDisposition("inline", obj.DisplayName),
	}
	for k, v := range extra {
		headers[k] = v
	}
	c.DataFromReader(http.StatusOK, obj.Size, string(obj.ContentType), obj.Body, headers)
}

func contentDisposition(kind, filename string) string {
	if filename == "" {
		return kind
	}
	if v := mime.FormatMediaType(kind, map[string]string{"filename": filename}); v != "" {
		return v
	}
	return kind
}
