package memory

import (
	"context"
	"sort"
	"time"

	"pixeldust/internal/models"
	"pixeldust/internal/repository"
)

type FileRepository struct {
	store *Store
}

func (r *FileRepository) usage(userID string) int64 {
	var used int64
	for _, f := range r.store.files {
		if f.UserID == userID {
			used += f.FileSize
		}
	}
	return used
}

func (r *FileRepository) SumSizeByUser(ctx context.Context, userID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.usage(userID), nil
}

func (r *FileRepository) CreateWithinQuota(ctx context.Context, file models.File, ceiling int64) (models.File, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[file.UserID]; !ok {
		return models.File{}, repository.ErrUserNotFound
	}
	if r.usage(file.UserID)+file.FileSize > ceiling {
		return models.File{}, repository.ErrQuotaExceeded
	}
	for _, existing := range s.files {
		if existing.Filename == file.Filename {
			return models.File{}, repository.ErrFilenameTaken
		}
	}

	file.UploadDate = time.Now().UTC()
	file.Views = 0
	s.files[file.ID] = file
	return file, nil
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (models.File, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return models.File{}, repository.ErrFileNotFound
	}
	return file, nil
}

func (r *FileRepository) GetByIDForUser(ctx context.Context, id, userID string) (models.File, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok || file.UserID != userID {
		return models.File{}, repository.ErrFileNotFound
	}
	return file, nil
}

func (r *FileRepository) GetByFilename(ctx context.Context, filename string) (models.File, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, file := range s.files {
		if file.Filename == filename {
			return file, nil
		}
	}
	return models.File{}, repository.ErrFileNotFound
}

func (r *FileRepository) ListByUser(ctx context.Context, userID string) ([]models.File, error) {
	return r.filter(userID, func(models.File) bool { return true }, false), nil
}

func (r *FileRepository) ListOlderThan(ctx context.Context, userID string, cutoff time.Time) ([]models.File, error) {
	return r.filter(userID, func(f models.File) bool { return f.UploadDate.Before(cutoff) }, true), nil
}

func (r *FileRepository) filter(userID string, keep func(models.File) bool, ascending bool) []models.File {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.File
	for _, f := range s.files {
		if f.UserID == userID && keep(f) {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].UploadDate.Before(out[j].UploadDate)
		}
		return out[i].UploadDate.After(out[j].UploadDate)
	})
	return out
}

func (r *FileRepository) DeleteByID(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return repository.ErrFileNotFound
	}
	delete(s.files, id)
	return nil
}

func (r *FileRepository) DeleteByUser(ctx context.Context, userID string, ids []string) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, id := range ids {
		if f, ok := s.files[id]; ok && f.UserID == userID {
			delete(s.files, id)
			n++
		}
	}
	return n, nil
}

func (r *FileRepository) IncrementViews(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[id]
	if !ok {
		return repository.ErrFileNotFound
	}
	file.Views++
	s.files[id] = file
	return nil
}

// SetUploadDate backdates a file. Used by tests exercising expiry.
func (r *FileRepository) SetUploadDate(id string, at time.Time) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if file, ok := s.files[id]; ok {
		file.UploadDate = at
		s.files[id] = file
	}
}
