package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"

	"pixeldust/internal/metrics"
	"pixeldust/internal/models"
	"pixeldust/internal/storage"
)

// Object is an open stored file. Callers must close Body.
type Object struct {
	File        models.File
	Body        io.ReadCloser
	Size        int64
	ContentType models.ContentType
	DisplayName string
}

type WipeResult struct {
	Removed int
	Failed  int
	Records int64
}

type PurgeResult struct {
	Accounts int
	Removed  int
	Failed   int
}

type FileService struct {
	files    FileRepository
	settings SettingsRepository
	quota    *QuotaAccountant
	blobs    storage.BlobStore
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func NewFileService(
	files FileRepository,
	settings SettingsRepository,
	quota *QuotaAccountant,
	blobs storage.BlobStore,
	m *metrics.Metrics,
	log zerolog.Logger,
) *FileService {
	return &FileService{
		files:    files,
		settings: settings,
		quota:    quota,
		blobs:    blobs,
		metrics:  m,
		log:      log,
	}
}

// Retrieve opens the file published under filename and counts a view.
func (s *FileService) Retrieve(ctx context.Context, filename string) (Object, error) {
	file, err := s.files.GetByFilename(ctx, filename)
	if err != nil {
		return Object{}, storeErr("lookup file", err)
	}
	return s.open(ctx, file)
}

func (s *FileService) RetrieveByID(ctx context.Context, id string) (Object, error) {
	file, err := s.files.GetByID(ctx, id)
	if err != nil {
		return Object{}, storeErr("lookup file", err)
	}
	return s.open(ctx, file)
}

func (s *FileService) open(ctx context.Context, file models.File) (Object, error) {
	body, size, err := s.blobs.Open(ctx, file.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			s.log.Warn().Str("file_id", file.ID).Str("filename", file.Filename).Msg("metadata without bytes")
			return Object{}, fmt.Errorf("bytes of %s missing: %w", file.Filename, ErrNotFound)
		}
		return Object{}, fmt.Errorf("open blob: %w", err)
	}

	if err := s.RecordView(ctx, file.ID); err != nil {
		body.Close()
		return Object{}, err
	}
	file.Views++

	return Object{
		File:        file,
		Body:        body,
		Size:        size,
		ContentType: file.FileType,
		DisplayName: file.OriginalName,
	}, nil
}

// RecordView adds exactly one view to the file.
func (s *FileService) RecordView(ctx context.Context, id string) error {
	if err := s.files.IncrementViews(ctx, id); err != nil {
		return storeErr("record view", err)
	}
	s.metrics.RecordView()
	return nil
}

// Info returns metadata without counting a view.
func (s *FileService) Info(ctx context.Context, id string) (models.File, error) {
	file, err := s.files.GetByID(ctx, id)
	if err != nil {
		return models.File{}, storeErr("lookup file", err)
	}
	return file, nil
}

func (s *FileService) List(ctx context.Context, userID string) ([]models.File, error) {
	files, err := s.files.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeErr("list files", err)
	}
	return files, nil
}

func (s *FileService) Usage(ctx context.Context, userID string) (models.StorageUsage, error) {
	return s.quota.Usage(ctx, userID)
}

// Delete removes one of the caller's files. Files owned by someone else are
// reported as not found.
func (s *FileService) Delete(ctx context.Context, id, userID string) error {
	file, err := s.files.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return storeErr("lookup file", err)
	}
	if err := s.files.DeleteByID(ctx, file.ID); err != nil {
		return storeErr("delete file", err)
	}
	s.removeBlob(ctx, file)
	return nil
}

func (s *FileService) removeBlob(ctx context.Context, file models.File) bool {
	err := s.blobs.Delete(ctx, file.Filename)
	if err == nil || errors.Is(err, storage.ErrBlobNotFound) {
		return true
	}
	s.log.Error().Err(err).Str("file_id", file.ID).Str("filename", file.Filename).Msg("delete blob failed")
	return false
}

// Wipe deletes every blob of the account, continuing past failures, and then
// drops the records it listed. Files uploaded while the wipe runs survive.
func (s *FileService) Wipe(ctx context.Context, userID string) (WipeResult, error) {
	files, err := s.files.ListByUser(ctx, userID)
	if err != nil {
		return WipeResult{}, storeErr("list files", err)
	}

	var result WipeResult
	ids := make([]string, 0, len(files))
	for _, file := range files {
		ids = append(ids, file.ID)
		err := s.blobs.Delete(ctx, file.Filename)
		switch {
		case err == nil:
			result.Removed++
		case errors.Is(err, storage.ErrBlobNotFound):
		default:
			result.Failed++
			s.log.Error().Err(err).Str("filename", file.Filename).Msg("wipe: delete blob failed")
		}
	}

	records, err := s.files.DeleteByUser(ctx, userID, ids)
	if err != nil {
		return result, storeErr("delete file records", err)
	}
	result.Records = records

	s.metrics.RecordCleanup(result.Removed, result.Failed)
	s.log.Info().
		Str("user_id", userID).
		Int("removed", result.Removed).
		Int("failed", result.Failed).
		Int64("records", records).
		Msg("files wiped")
	return result, nil
}

// Export writes a zip archive of the account's files to w. Entries are named
// after the original upload names; blobs that are missing are skipped.
func (s *FileService) Export(ctx context.Context, userID string, w io.Writer) error {
	files, err := s.files.ListByUser(ctx, userID)
	if err != nil {
		return storeErr("list files", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files to export: %w", ErrNotFound)
	}

	zw := zip.NewWriter(w)
	names := make(map[string]int, len(files))
	for _, file := range files {
		if err := s.addToArchive(ctx, zw, file, names); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}

func (s *FileService) addToArchive(ctx context.Context, zw *zip.Writer, file models.File, names map[string]int) error {
	body, _, err := s.blobs.Open(ctx, file.Filename)
	if err != nil {
		s.log.Warn().Err(err).Str("filename", file.Filename).Msg("export: skipping unreadable blob")
		return nil
	}
	defer body.Close()

	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     uniqueEntryName(file.OriginalName, names),
		Method:   zip.Deflate,
		Modified: file.UploadDate,
	})
	if err != nil {
		return fmt.Errorf("zip entry: %w", err)
	}
	if _, err := io.Copy(entry, body); err != nil {
		return fmt.Errorf("zip copy: %w", err)
	}
	return nil
}

// uniqueEntryName returns name, or name with a " (n)" suffix before the
// extension when an earlier entry already used it.
func uniqueEntryName(name string, seen map[string]int) string {
	if name == "" {
		name = "file"
	}
	n := seen[name]
	seen[name] = n + 1
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	candidate := fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
	if _, taken := seen[candidate]; taken {
		return uniqueEntryName(name, seen)
	}
	seen[candidate] = 1
	return candidate
}

// PurgeExpired removes files older than each account's auto_delete_after_days
// window. Failures are counted and the sweep continues.
func (s *FileService) PurgeExpired(ctx context.Context, now time.Time) (PurgeResult, error) {
	accounts, err := s.settings.ListAutoDelete(ctx)
	if err != nil {
		return PurgeResult{}, storeErr("list auto-delete settings", err)
	}

	var result PurgeResult
	for _, settings := range accounts {
		if settings.AutoDeleteAfterDays <= 0 {
			continue
		}
		result.Accounts++

		cutoff := now.AddDate(0, 0, -settings.AutoDeleteAfterDays)
		files, err := s.files.ListOlderThan(ctx, settings.UserID, cutoff)
		if err != nil {
			result.Failed++
			s.log.Error().Err(err).Str("user_id", settings.UserID).Msg("purge: list expired files failed")
			continue
		}

		for _, file := range files {
			if err := s.files.DeleteByID(ctx, file.ID); err != nil {
				result.Failed++
				s.log.Error().Err(err).Str("file_id", file.ID).Msg("purge: delete record failed")
				continue
			}
			if s.removeBlob(ctx, file) {
				result.Removed++
			} else {
				result.Failed++
			}
		}
	}

	s.metrics.RecordCleanup(result.Removed, result.Failed)
	s.log.Info().
		Int("accounts", result.Accounts).
		Int("removed", result.Removed).
		Int("failed", result.Failed).
		Msg("expired files purged")
	return result, nil
}
