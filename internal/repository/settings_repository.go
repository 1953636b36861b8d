package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"pixeldust/internal/models"
)

const settingsColumns = `user_id, email_notifications, public_profile, auto_delete_after_days, max_file_size_mb, theme, url_length, anonymous_upload`

type SettingsRepository struct {
	db DBTX
}

func NewSettingsRepository(db DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, userID string) (models.Settings, error) {
	const query = `SELECT ` + settingsColumns + ` FROM user_settings WHERE user_id = $1`
	return scanSettings(r.db.QueryRow(ctx, query, userID))
}

// Create is idempotent: an existing row for the account is left untouched.
func (r *SettingsRepository) Create(ctx context.Context, s models.Settings) error {
	const query = `
		INSERT INTO user_settings (` + settingsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		s.UserID,
		s.EmailNotifications,
		s.PublicProfile,
		s.AutoDeleteAfterDays,
		s.MaxFileSizeMB,
		s.Theme,
		s.URLLength,
		s.AnonymousUpload,
	)
	return classify(err)
}

func (r *SettingsRepository) Update(ctx context.Context, s models.Settings) error {
	const query = `
		UPDATE user_settings
		SET email_notifications = $2,
		    public_profile = $3,
		    auto_delete_after_days = $4,
		    max_file_size_mb = $5,
		    theme = $6,
		    url_length = $7,
		    anonymous_upload = $8
		WHERE user_id = $1
	`
	cmd, err := r.db.Exec(ctx, query,
		s.UserID,
		s.EmailNotifications,
		s.PublicProfile,
		s.AutoDeleteAfterDays,
		s.MaxFileSizeMB,
		s.Theme,
		s.URLLength,
		s.AnonymousUpload,
	)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrSettingsNotFound
	}
	return nil
}

func (r *SettingsRepository) ListAutoDelete(ctx context.Context) ([]models.Settings, error) {
	const query = `
		SELECT ` + settingsColumns + `
		FROM user_settings
		WHERE auto_delete_after_days > 0
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []models.Settings
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, classify(rows.Err())
}

func scanSettings(row pgx.Row) (models.Settings, error) {
	var s models.Settings
	if err := row.Scan(
		&s.UserID,
		&s.EmailNotifications,
		&s.PublicProfile,
		&s.AutoDeleteAfterDays,
		&s.MaxFileSizeMB,
		&s.Theme,
		&s.URLLength,
		&s.AnonymousUpload,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Settings{}, ErrSettingsNotFound
		}
		return models.Settings{}, classify(err)
	}
	return s, nil
}
