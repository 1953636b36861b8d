package service

import (
	"context"
	"time"

	"pixeldust/internal/models"
)

// The persistence operations the services depend on. Implemented by
// internal/repository on Postgres and internal/repository/memory in process.

type UserRepository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, id, name, email string) error
	UpdatePassword(ctx context.Context, id string, hash []byte) error
}

type SessionRepository interface {
	Create(ctx context.Context, session models.Session) (models.Session, error)
	GetByID(ctx context.Context, id string) (models.Session, error)
	GetByToken(ctx context.Context, token string) (models.Session, error)
	ListByUser(ctx context.Context, userID string) ([]models.Session, error)
	DeleteByToken(ctx context.Context, userID, token string) error
	Touch(ctx context.Context, id string) error
}

type FileRepository interface {
	SumSizeByUser(ctx context.Context, userID string) (int64, error)
	CreateWithinQuota(ctx context.Context, file models.File, ceiling int64) (models.File, error)
	GetByID(ctx context.Context, id string) (models.File, error)
	GetByIDForUser(ctx context.Context, id, userID string) (models.File, error)
	GetByFilename(ctx context.Context, filename string) (models.File, error)
	ListByUser(ctx context.Context, userID string) ([]models.File, error)
	ListOlderThan(ctx context.Context, userID string, cutoff time.Time) ([]models.File, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string, ids []string) (int64, error)
	IncrementViews(ctx context.Context, id string) error
}

type SettingsRepository interface {
	Get(ctx context.Context, userID string) (models.Settings, error)
	Create(ctx context.Context, settings models.Settings) error
	Update(ctx context.Context, settings models.Settings) error
	ListAutoDelete(ctx context.Context) ([]models.Settings, error)
}
