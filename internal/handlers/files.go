package handlers

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"pixeldust/internal/config"
)

func (h HandlerSet) ListFiles(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	files, err := h.files.List(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(f))
	}
	c.JSON(http.StatusOK, out)
}

func (h HandlerSet) FileInfo(c *gin.Context) {
	file, err := h.files.Info(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFileResponse(file))
}

func (h HandlerSet) ViewFile(c *gin.Context) {
	obj, err := h.files.RetrieveByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	writeObject(c, obj, nil)
}

func (h HandlerSet) DeleteFile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.files.Delete(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

func (h HandlerSet) WipeFiles(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.files.Wipe(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Removed %d files and cleared file records.", result.Removed),
		"removed": result.Removed,
		"failed":  result.Failed,
		"records": result.Records,
	})
}

// exportWriter defers the attachment headers until the archive produces its
// first byte, so an empty account still gets a JSON 404.
type exportWriter struct {
	c        *gin.Context
	filename string
	started  bool
}

func (w *exportWriter) Write(p []byte) (int, error) {
	if !w.started {
		w.started = true
		w.c.Header("Content-Type", "application/zip")
		w.c.Header("Content-Disposition", contentDisposition("attachment", w.filename))
		w.c.Status(http.StatusOK)
	}
	return w.c.Writer.Write(p)
}

func (h HandlerSet) ExportFiles(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	w := &exportWriter{c: c, filename: fmt.Sprintf("user_%s_files.zip", user.ID)}
	if err := h.files.Export(c.Request.Context(), user.ID, w); err != nil {
		if !w.started {
			h.writeError(c, err)
			return
		}
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("export aborted mid-stream")
		_ = c.Error(err)
		c.Abort()
	}
}

type usageResponse struct {
	UsedBytes      int64   `json:"used_bytes"`
	UsedMB         float64 `json:"used_mb"`
	LimitMB        float64 `json:"limit_mb"`
	RemainingBytes int64   `json:"remaining_bytes"`
	RemainingMB    float64 `json:"remaining_mb"`
}

func toMB(bytes int64) float64 {
	return math.Round(float64(bytes)/config.MiB*100) / 100
}

func (h HandlerSet) StorageUsage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	usage, err := h.files.Usage(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, usageResponse{
		UsedBytes:      usage.UsedBytes,
		UsedMB:         toMB(usage.UsedBytes),
		LimitMB:        toMB(usage.LimitBytes),
		RemainingBytes: usage.RemainingBytes,
		RemainingMB:    toMB(usage.RemainingBytes),
	})
}
