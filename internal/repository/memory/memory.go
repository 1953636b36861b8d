// Package memory keeps every table in process memory. It backs the
// memory:// DSN and the service and handler tests.
package memory

import (
	"sync"

	"pixeldust/internal/models"
)

// Store is the shared state behind the four repositories. A single lock
// covers all tables so cross-table checks are atomic.
type Store struct {
	mu       sync.Mutex
	users    map[string]models.User
	sessions map[string]models.Session
	files    map[string]models.File
	settings map[string]models.Settings
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]models.User),
		sessions: make(map[string]models.Session),
		files:    make(map[string]models.File),
		settings: make(map[string]models.Settings),
	}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{store: s}
}

func (s *Store) Files() *FileRepository {
	return &FileRepository{store: s}
}

func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{store: s}
}
