package memory

import (
	"context"
	"time"

	"pixeldust/internal/models"
	"pixeldust/internal/repository"
)

type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return models.User{}, repository.ErrEmailTaken
		}
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.PasswordHash = append([]byte(nil), user.PasswordHash...)
	s.users[user.ID] = user
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, email string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	for otherID, other := range s.users {
		if otherID != id && other.Email == email {
			return repository.ErrEmailTaken
		}
	}
	user.Name = name
	user.Email = email
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = append([]byte(nil), hash...)
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	return nil
}
