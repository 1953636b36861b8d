package service

import (
	"github.com/rs/zerolog"

	"pixeldust/internal/config"
	"pixeldust/internal/metrics"
	"pixeldust/internal/security"
	"pixeldust/internal/storage"
)

// Repositories groups one persistence backend.
type Repositories struct {
	Users    UserRepository
	Sessions SessionRepository
	Files    FileRepository
	Settings SettingsRepository
}

type Services struct {
	Auth     *AuthService
	Sessions *SessionService
	Settings *SettingsService
	Quota    *QuotaAccountant
	Uploads  *UploadService
	Files    *FileService
}

func New(repos Repositories, blobs storage.BlobStore, cfg *config.AppConfig, m *metrics.Metrics, log zerolog.Logger) *Services {
	hasher := security.NewPasswordHasher(security.PasswordConfig{
		Algorithm:  cfg.Security.PasswordAlgorithm,
		BcryptCost: cfg.Security.BcryptCost,
	}, log)
	tokens := security.NewTokenIssuer(cfg.Security.JWTSecret)

	sessions := NewSessionService(repos.Sessions, log)
	settings := NewSettingsService(repos.Settings, log)
	quota := NewQuotaAccountant(repos.Files, cfg.Quota)

	return &Services{
		Auth:     NewAuthService(repos.Users, repos.Settings, sessions, hasher, tokens, cfg, m, log),
		Sessions: sessions,
		Settings: settings,
		Quota:    quota,
		Uploads:  NewUploadService(repos.Files, settings, quota, blobs, cfg, m, log),
		Files:    NewFileService(repos.Files, repos.Settings, quota, blobs, m, log),
	}
}
