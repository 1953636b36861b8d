package memory

import (
	"context"
	"sort"
	"time"

	"pixeldust/internal/models"
	"pixeldust/internal/repository"
)

type SessionRepository struct {
	store *Store
}

func (r *SessionRepository) Create(ctx context.Context, session models.Session) (models.Session, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[session.UserID]; !ok {
		return models.Session{}, repository.ErrUserNotFound
	}
	for _, existing := range s.sessions {
		if existing.SessionToken == session.SessionToken {
			return models.Session{}, repository.ErrSessionTokenTaken
		}
	}
	session.LastActive = session.CreatedAt
	session.IsActive = true
	s.sessions[session.ID] = session
	return session, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (models.Session, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return session, nil
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (models.Session, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		if session.SessionToken == token {
			return session, nil
		}
	}
	return models.Session{}, repository.ErrSessionNotFound
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]models.Session, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			out = append(out, session)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActive.After(out[j].LastActive)
	})
	return out, nil
}

func (r *SessionRepository) DeleteByToken(ctx context.Context, userID, token string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, session := range s.sessions {
		if session.SessionToken == token && session.UserID == userID {
			delete(s.sessions, id)
			return nil
		}
	}
	return repository.ErrSessionNotFound
}

func (r *SessionRepository) Touch(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.LastActive = time.Now().UTC()
	s.sessions[id] = session
	return nil
}
