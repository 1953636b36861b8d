package middleware

import (
	"github.com/gin-gonic/gin"

	"pixeldust/internal/models"
)

const (
	currentUserKey    = "current_user"
	currentSessionKey = "current_session"
)

// CurrentUser returns the account resolved by Auth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(currentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}

func CurrentSession(c *gin.Context) (models.Session, bool) {
	val, exists := c.Get(currentSessionKey)
	if !exists {
		return models.Session{}, false
	}
	session, ok := val.(models.Session)
	return session, ok
}
