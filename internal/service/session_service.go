package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pixeldust/internal/ids"
	"pixeldust/internal/models"
	"pixeldust/internal/repository"
	"pixeldust/internal/security"
)

const sessionTokenAttempts = 3

// ClientInfo describes where a login came from.
type ClientInfo struct {
	IPAddress  string
	UserAgent  string
	DeviceInfo *string
}

type SessionService struct {
	sessions SessionRepository
	log      zerolog.Logger
	now      func() time.Time
}

func NewSessionService(sessions SessionRepository, log zerolog.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		log:      log,
		now:      time.Now,
	}
}

func (s *SessionService) Create(ctx context.Context, userID string, client ClientInfo) (models.Session, error) {
	for attempt := 1; attempt <= sessionTokenAttempts; attempt++ {
		createdAt := s.now().UTC()
		token, err := security.NewSessionToken(userID, createdAt)
		if err != nil {
			return models.Session{}, err
		}

		session, err := s.sessions.Create(ctx, models.Session{
			ID:           ids.New(),
			UserID:       userID,
			SessionToken: token,
			DeviceInfo:   client.DeviceInfo,
			IPAddress:    client.IPAddress,
			UserAgent:    client.UserAgent,
			CreatedAt:    createdAt,
		})
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, repository.ErrSessionTokenTaken) {
			return models.Session{}, storeErr("create session", err)
		}
		s.log.Warn().Int("attempt", attempt).Str("user_id", userID).Msg("session token collision")
	}
	return models.Session{}, fmt.Errorf("create session: %w", ErrConflict)
}

func (s *SessionService) List(ctx context.Context, userID string) ([]models.Session, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeErr("list sessions", err)
	}
	return sessions, nil
}

// Terminate deletes the session identified by token. Unknown tokens and tokens
// owned by another account both report ErrNotFound.
func (s *SessionService) Terminate(ctx context.Context, userID, token string) error {
	if err := s.sessions.DeleteByToken(ctx, userID, token); err != nil {
		return storeErr("terminate session", err)
	}
	s.log.Info().Str("user_id", userID).Msg("session terminated")
	return nil
}

func (s *SessionService) Get(ctx context.Context, id string) (models.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return models.Session{}, storeErr("get session", err)
	}
	return session, nil
}

// Touch records activity on the session. Failures are logged only.
func (s *SessionService) Touch(ctx context.Context, id string) {
	if err := s.sessions.Touch(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("session_id", id).Msg("touch session failed")
	}
}
