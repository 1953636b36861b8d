package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pixeldust/internal/middleware"
	"pixeldust/internal/models"
)

type sessionResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	SessionToken string    `json:"session_token"`
	DeviceInfo   *string   `json:"device_info"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
	IsActive     bool      `json:"is_active"`
	Current      bool      `json:"current"`
}

func toSessionResponse(s models.Session, currentID string) sessionResponse {
	return sessionResponse{
		ID:           s.ID,
		UserID:       s.UserID,
		SessionToken: s.SessionToken,
		DeviceInfo:   s.DeviceInfo,
		IPAddress:    s.IPAddress,
		UserAgent:    s.UserAgent,
		CreatedAt:    s.CreatedAt,
		LastActive:   s.LastActive,
		IsActive:     s.IsActive,
		Current:      s.ID == currentID,
	}
}

func (h HandlerSet) ListSessions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	sessions, err := h.sessions.List(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	var currentID string
	if current, ok := middleware.CurrentSession(c); ok {
		currentID = current.ID
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s, currentID))
	}
	c.JSON(http.StatusOK, out)
}

func (h HandlerSet) TerminateSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.sessions.Terminate(c.Request.Context(), user.ID, c.Param("token")); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}
