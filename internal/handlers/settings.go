package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pixeldust/internal/models"
)

type settingsPayload struct {
	EmailNotifications  bool   `json:"email_notifications"`
	PublicProfile       bool   `json:"public_profile"`
	AutoDeleteAfterDays int    `json:"auto_delete_after_days"`
	MaxFileSizeMB       int    `json:"max_file_size_mb"`
	Theme               string `json:"theme"`
	URLLength           int    `json:"url_length"`
	AnonymousUpload     bool   `json:"anonymous_upload"`
}

func toSettingsPayload(s models.Settings) settingsPayload {
	return settingsPayload{
		EmailNotifications:  s.EmailNotifications,
		PublicProfile:       s.PublicProfile,
		AutoDeleteAfterDays: s.AutoDeleteAfterDays,
		MaxFileSizeMB:       s.MaxFileSizeMB,
		Theme:               s.Theme,
		URLLength:           s.URLLength,
		AnonymousUpload:     s.AnonymousUpload,
	}
}

func (p settingsPayload) toModel(userID string) models.Settings {
	return models.Settings{
		UserID:              userID,
		EmailNotifications:  p.EmailNotifications,
		PublicProfile:       p.PublicProfile,
		AutoDeleteAfterDays: p.AutoDeleteAfterDays,
		MaxFileSizeMB:       p.MaxFileSizeMB,
		Theme:               p.Theme,
		URLLength:           p.URLLength,
		AnonymousUpload:     p.AnonymousUpload,
	}
}

func (h HandlerSet) GetSettings(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	settings, err := h.settings.Get(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSettingsPayload(settings))
}

// UpdateSettings applies the request body on top of the stored settings, so
// fields left out of the body keep their value.
func (h HandlerSet) UpdateSettings(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	current, err := h.settings.Get(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	payload := toSettingsPayload(current)
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}

	updated, err := h.settings.Update(c.Request.Context(), user.ID, payload.toModel(user.ID))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings updated successfully",
		"settings": toSettingsPayload(updated),
	})
}
