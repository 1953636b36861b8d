package service

import (
	"errors"
	"fmt"

	"pixeldust/internal/repository"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrConflict             = errors.New("conflict")
	ErrQuotaExceeded        = errors.New("quota exceeded")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrNotFound             = errors.New("not found")
	ErrUnavailable          = errors.New("service unavailable")
	ErrInvalidInput         = errors.New("invalid input")
)

// storeErr translates repository failures into service errors. Errors it does
// not recognise are wrapped with op and passed through.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUnavailable):
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	case errors.Is(err, repository.ErrQuotaExceeded):
		return fmt.Errorf("%s: %w", op, ErrQuotaExceeded)
	case errors.Is(err, repository.ErrEmailTaken),
		errors.Is(err, repository.ErrFilenameTaken),
		errors.Is(err, repository.ErrSessionTokenTaken):
		return fmt.Errorf("%s: %w: %v", op, ErrConflict, err)
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, repository.ErrFileNotFound),
		errors.Is(err, repository.ErrSettingsNotFound):
		return fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
