package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"pixeldust/internal/config"
	"pixeldust/internal/ids"
	"pixeldust/internal/media/sniffer"
	"pixeldust/internal/media/svg"
	"pixeldust/internal/metrics"
	"pixeldust/internal/models"
	"pixeldust/internal/repository"
	"pixeldust/internal/storage"
)

const maxOriginalNameLen = 255

type UploadInput struct {
	UserID       string
	OriginalName string
	ContentType  string
	Body         io.Reader
	// NameLength overrides the account's url_length when positive.
	NameLength int
}

type UploadService struct {
	files    FileRepository
	settings *SettingsService
	quota    *QuotaAccountant
	blobs    storage.BlobStore
	cfg      *config.AppConfig
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func NewUploadService(
	files FileRepository,
	settings *SettingsService,
	quota *QuotaAccountant,
	blobs storage.BlobStore,
	cfg *config.AppConfig,
	m *metrics.Metrics,
	log zerolog.Logger,
) *UploadService {
	return &UploadService{
		files:    files,
		settings: settings,
		quota:    quota,
		blobs:    blobs,
		cfg:      cfg,
		metrics:  m,
		log:      log,
	}
}

func (s *UploadService) Upload(ctx context.Context, input UploadInput) (models.File, error) {
	file, err := s.upload(ctx, input)
	s.metrics.RecordUpload(err == nil, file.FileSize)
	if err != nil {
		s.log.Debug().Err(err).Str("user_id", input.UserID).Msg("upload rejected")
		return models.File{}, err
	}
	s.log.Info().
		Str("user_id", file.UserID).
		Str("file_id", file.ID).
		Str("filename", file.Filename).
		Int64("size", file.FileSize).
		Msg("file uploaded")
	return file, nil
}

func (s *UploadService) upload(ctx context.Context, input UploadInput) (models.File, error) {
	contentType := models.ContentType(input.ContentType).Base()
	if !contentType.Allowed() {
		return models.File{}, fmt.Errorf("content type %q: %w", input.ContentType, ErrUnsupportedMediaType)
	}
	if input.Body == nil {
		return models.File{}, fmt.Errorf("missing file body: %w", ErrInvalidInput)
	}

	limit := s.quota.ObjectCeiling()
	data, err := io.ReadAll(io.LimitReader(input.Body, limit+1))
	if err != nil {
		return models.File{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return models.File{}, fmt.Errorf("object over %d bytes: %w", limit, ErrQuotaExceeded)
	}
	if len(data) == 0 {
		return models.File{}, fmt.Errorf("empty file: %w", ErrInvalidInput)
	}

	if s.cfg.Upload.SniffContent && !sniffer.Matches(contentType, data) {
		return models.File{}, fmt.Errorf("payload does not look like %s: %w", contentType, ErrUnsupportedMediaType)
	}
	if contentType == models.ContentTypeSVG {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return models.File{}, fmt.Errorf("sanitize svg: %w", ErrUnsupportedMediaType)
		}
		data = clean
	}

	size := int64(len(data))
	if err := s.quota.Admit(ctx, input.UserID, size); err != nil {
		return models.File{}, err
	}

	originalName := cleanOriginalName(input.OriginalName)
	ext := models.Extension(originalName)
	if ext == "" {
		ext = defaultExtension(contentType)
	}
	length := s.nameLength(ctx, input.UserID, input.NameLength)

	attempts := s.cfg.Upload.NameRetries
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		name, err := storage.AllocateName(length)
		if err != nil {
			return models.File{}, err
		}

		display := originalName
		if display == "" {
			display = name + ext
		}

		file, err := s.files.CreateWithinQuota(ctx, models.File{
			ID:           ids.New(),
			UserID:       input.UserID,
			Filename:     name + ext,
			OriginalName: display,
			FileType:     contentType,
			FileSize:     size,
		}, s.quota.AccountCeiling())
		if errors.Is(err, repository.ErrFilenameTaken) {
			s.log.Debug().Int("attempt", attempt).Msg("public name collision")
			continue
		}
		if err != nil {
			return models.File{}, storeErr("record upload", err)
		}

		err = s.blobs.Put(ctx, file.Filename, bytes.NewReader(data), size, string(contentType))
		if err == nil {
			return file, nil
		}

		if delErr := s.files.DeleteByID(ctx, file.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("file_id", file.ID).Msg("remove metadata after failed blob write")
		}
		if errors.Is(err, storage.ErrBlobExists) {
			s.log.Warn().Str("filename", file.Filename).Msg("orphan blob occupies public name")
			continue
		}
		return models.File{}, fmt.Errorf("store blob: %w", err)
	}

	return models.File{}, fmt.Errorf("no free public name after %d attempts: %w", attempts, ErrConflict)
}

// nameLength picks the public name length: explicit request value, then the
// account's url_length, then the configured default.
func (s *UploadService) nameLength(ctx context.Context, userID string, explicit int) int {
	if explicit > 0 {
		return explicit
	}
	if s.settings != nil {
		settings, err := s.settings.Get(ctx, userID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("settings unavailable, using default name length")
		} else if settings.URLLength > 0 {
			return settings.URLLength
		}
	}
	return s.cfg.Upload.DefaultNameLength
}

func cleanOriginalName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	if len(name) > maxOriginalNameLen {
		name = name[len(name)-maxOriginalNameLen:]
	}
	return name
}

func defaultExtension(ct models.ContentType) string {
	switch ct {
	case models.ContentTypePNG:
		return ".png"
	case models.ContentTypeJPEG, models.ContentTypeJPG:
		return ".jpg"
	case models.ContentTypeGIF:
		return ".gif"
	case models.ContentTypeSVG:
		return ".svg"
	}
	return ""
}
