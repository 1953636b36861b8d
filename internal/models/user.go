package models

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	ID           string
	UserID       string
	SessionToken string
	DeviceInfo   *string
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
	LastActive   time.Time
	IsActive     bool
}

type Settings struct {
	UserID              string
	EmailNotifications  bool
	PublicProfile       bool
	AutoDeleteAfterDays int
	MaxFileSizeMB       int
	Theme               string
	URLLength           int
	AnonymousUpload     bool
}

// DefaultSettings mirrors the column defaults of user_settings.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:              userID,
		EmailNotifications:  true,
		PublicProfile:       true,
		AutoDeleteAfterDays: 0,
		MaxFileSizeMB:       10,
		Theme:               "dark",
		URLLength:           8,
		AnonymousUpload:     false,
	}
}
