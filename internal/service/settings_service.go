package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"pixeldust/internal/models"
	"pixeldust/internal/repository"
	"pixeldust/internal/storage"
)

type SettingsService struct {
	settings SettingsRepository
	log      zerolog.Logger
}

func NewSettingsService(settings SettingsRepository, log zerolog.Logger) *SettingsService {
	return &SettingsService{settings: settings, log: log}
}

// Get returns the account settings, creating the default row on first access.
func (s *SettingsService) Get(ctx context.Context, userID string) (models.Settings, error) {
	settings, err := s.settings.Get(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, repository.ErrSettingsNotFound) {
		return models.Settings{}, storeErr("get settings", err)
	}

	defaults := models.DefaultSettings(userID)
	if err := s.settings.Create(ctx, defaults); err != nil {
		return models.Settings{}, storeErr("create settings", err)
	}
	return defaults, nil
}

func (s *SettingsService) Update(ctx context.Context, userID string, settings models.Settings) (models.Settings, error) {
	settings.UserID = userID
	if err := validateSettings(settings); err != nil {
		return models.Settings{}, err
	}

	// make sure the row exists before updating it
	if _, err := s.Get(ctx, userID); err != nil {
		return models.Settings{}, err
	}
	if err := s.settings.Update(ctx, settings); err != nil {
		return models.Settings{}, storeErr("update settings", err)
	}
	return settings, nil
}

func validateSettings(s models.Settings) error {
	switch {
	case s.URLLength < 1 || s.URLLength > storage.MaxNameLength:
		return fmt.Errorf("url_length must be between 1 and %d: %w", storage.MaxNameLength, ErrInvalidInput)
	case s.AutoDeleteAfterDays < 0:
		return fmt.Errorf("auto_delete_after_days must not be negative: %w", ErrInvalidInput)
	case s.MaxFileSizeMB < 1:
		return fmt.Errorf("max_file_size_mb must be at least 1: %w", ErrInvalidInput)
	}
	return nil
}
