package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pixeldust/internal/metrics"
	"pixeldust/internal/service"
)

type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (service.PurgeResult, error)
}

type Processor struct {
	purger  Purger
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

func NewProcessor(purger Purger, m *metrics.Metrics, logger zerolog.Logger) *Processor {
	return &Processor{
		purger:  purger,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Handle runs one stream entry. Malformed and unknown tasks are logged and
// reported as handled so they are acked instead of redelivered forever.
func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	task, err := Decode(msg.Values)
	if err != nil {
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping malformed task")
		return nil
	}

	switch task.Type {
	case TypeCleanup:
		err = p.handleCleanup(ctx)
	default:
		p.logger.Warn().Str("type", string(task.Type)).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}

	p.metrics.RecordJob(string(task.Type), err == nil)
	return err
}

func (p *Processor) handleCleanup(ctx context.Context) error {
	result, err := p.purger.PurgeExpired(ctx, p.now())
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	p.logger.Info().
		Int("accounts", result.Accounts).
		Int("removed", result.Removed).
		Int("failed", result.Failed).
		Msg("cleanup task done")
	return nil
}
