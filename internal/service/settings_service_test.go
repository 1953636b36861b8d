package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeldust/internal/models"
)

func TestSettingsLazilyCreated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// an account whose settings row was never written
	settings, err := h.settings.Get(ctx, "legacy-user")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings("legacy-user"), settings)

	stored, err := h.store.Settings().Get(ctx, "legacy-user")
	require.NoError(t, err)
	assert.Equal(t, settings, stored)
}

func TestSettingsUpdateValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "Alice", "alice@example.com", "pw")

	bad := []func(*models.Settings){
		func(s *models.Settings) { s.URLLength = 0 },
		func(s *models.Settings) { s.URLLength = 65 },
		func(s *models.Settings) { s.AutoDeleteAfterDays = -1 },
		func(s *models.Settings) { s.MaxFileSizeMB = 0 },
	}
	for _, mutate := range bad {
		s := models.DefaultSettings(alice.User.ID)
		mutate(&s)
		_, err := h.settings.Update(ctx, alice.User.ID, s)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	s := models.DefaultSettings("ignored")
	s.Theme = "light"
	s.URLLength = 64
	updated, err := h.settings.Update(ctx, alice.User.ID, s)
	require.NoError(t, err)
	assert.Equal(t, alice.User.ID, updated.UserID)

	got, err := h.settings.Get(ctx, alice.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "light", got.Theme)
	assert.Equal(t, 64, got.URLLength)
}
