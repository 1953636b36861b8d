package memory

import (
	"context"

	"pixeldust/internal/models"
	"pixeldust/internal/repository"
)

type SettingsRepository struct {
	store *Store
}

func (r *SettingsRepository) Get(ctx context.Context, userID string) (models.Settings, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, ok := s.settings[userID]
	if !ok {
		return models.Settings{}, repository.ErrSettingsNotFound
	}
	return settings, nil
}

func (r *SettingsRepository) Create(ctx context.Context, settings models.Settings) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.settings[settings.UserID]; !ok {
		s.settings[settings.UserID] = settings
	}
	return nil
}

func (r *SettingsRepository) Update(ctx context.Context, settings models.Settings) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.settings[settings.UserID]; !ok {
		return repository.ErrSettingsNotFound
	}
	s.settings[settings.UserID] = settings
	return nil
}

func (r *SettingsRepository) ListAutoDelete(ctx context.Context) ([]models.Settings, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Settings
	for _, settings := range s.settings {
		if settings.AutoDeleteAfterDays > 0 {
			out = append(out, settings)
		}
	}
	return out, nil
}
