package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"pixeldust/internal/models"
)

const sessionTokenKey = "user_sessions_session_token_key"

const sessionColumns = `id, user_id, session_token, device_info, ip_address, user_agent, created_at, last_active, is_active`

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session models.Session) (models.Session, error) {
	const query = `
		INSERT INTO user_sessions (
			id, user_id, session_token, device_info, ip_address, user_agent, created_at, last_active, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $7, TRUE
		)
	`

	_, err := r.db.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.SessionToken,
		session.DeviceInfo,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, sessionTokenKey) {
			return models.Session{}, ErrSessionTokenTaken
		}
		return models.Session{}, classify(err)
	}
	session.LastActive = session.CreatedAt
	session.IsActive = true
	return session, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM user_sessions WHERE id = $1`
	return scanSession(r.db.QueryRow(ctx, query, id))
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM user_sessions WHERE session_token = $1`
	return scanSession(r.db.QueryRow(ctx, query, token))
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]models.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM user_sessions
		WHERE user_id = $1
		ORDER BY last_active DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, classify(rows.Err())
}

// DeleteByToken removes the session only when it belongs to userID, so a
// foreign token is indistinguishable from an unknown one.
func (r *SessionRepository) DeleteByToken(ctx context.Context, userID, token string) error {
	const query = `DELETE FROM user_sessions WHERE session_token = $1 AND user_id = $2`
	cmd, err := r.db.Exec(ctx, query, token, userID)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) Touch(ctx context.Context, id string) error {
	const query = `UPDATE user_sessions SET last_active = NOW() WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func scanSession(row pgx.Row) (models.Session, error) {
	var session models.Session
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.SessionToken,
		&session.DeviceInfo,
		&session.IPAddress,
		&session.UserAgent,
		&session.CreatedAt,
		&session.LastActive,
		&session.IsActive,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, classify(err)
	}
	return session, nil
}
