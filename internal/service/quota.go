package service

import (
	"context"
	"fmt"

	"pixeldust/internal/config"
	"pixeldust/internal/models"
)

// QuotaAccountant answers whether an account can store more bytes. The
// authoritative check happens again inside FileRepository.CreateWithinQuota.
type QuotaAccountant struct {
	files          FileRepository
	accountCeiling int64
	objectCeiling  int64
}

func NewQuotaAccountant(files FileRepository, cfg config.QuotaConfig) *QuotaAccountant {
	return &QuotaAccountant{
		files:          files,
		accountCeiling: cfg.AccountCeilingBytes,
		objectCeiling:  cfg.ObjectCeilingBytes,
	}
}

func (q *QuotaAccountant) AccountCeiling() int64 { return q.accountCeiling }

func (q *QuotaAccountant) ObjectCeiling() int64 { return q.objectCeiling }

func (q *QuotaAccountant) CurrentUsage(ctx context.Context, userID string) (int64, error) {
	used, err := q.files.SumSizeByUser(ctx, userID)
	if err != nil {
		return 0, storeErr("sum usage", err)
	}
	return used, nil
}

// Admit accepts size when it fits the per-object ceiling and usage plus size
// does not exceed the account ceiling. Reaching the ceiling exactly is allowed.
func (q *QuotaAccountant) Admit(ctx context.Context, userID string, size int64) error {
	if size < 0 {
		return fmt.Errorf("negative size: %w", ErrInvalidInput)
	}
	if size > q.objectCeiling {
		return fmt.Errorf("object of %d bytes over %d byte limit: %w", size, q.objectCeiling, ErrQuotaExceeded)
	}

	used, err := q.CurrentUsage(ctx, userID)
	if err != nil {
		return err
	}
	if used+size > q.accountCeiling {
		return fmt.Errorf("usage %d + %d over %d: %w", used, size, q.accountCeiling, ErrQuotaExceeded)
	}
	return nil
}

func (q *QuotaAccountant) Usage(ctx context.Context, userID string) (models.StorageUsage, error) {
	used, err := q.CurrentUsage(ctx, userID)
	if err != nil {
		return models.StorageUsage{}, err
	}
	remaining := q.accountCeiling - used
	if remaining < 0 {
		remaining = 0
	}
	return models.StorageUsage{
		UsedBytes:      used,
		LimitBytes:     q.accountCeiling,
		RemainingBytes: remaining,
	}, nil
}
