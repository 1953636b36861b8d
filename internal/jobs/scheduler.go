package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"pixeldust/internal/tasks"
)

type Publisher interface {
	Publish(ctx context.Context, values map[string]any) (string, error)
}

type Scheduler struct {
	cron        *cron.Cron
	queue       Publisher
	cleanupSpec string
	log         zerolog.Logger
	now         func() time.Time
}

// NewScheduler enqueues the cleanup task on cleanupSpec, a six-field cron
// expression with seconds. A nil queue disables scheduling.
func NewScheduler(queue Publisher, cleanupSpec string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithSeconds()),
		queue:       queue,
		cleanupSpec: cleanupSpec,
		log:         log,
		now:         time.Now,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil || s.cleanupSpec == "" {
		s.log.Warn().Msg("scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cleanupSpec, s.enqueueCleanup); err != nil {
		return fmt.Errorf("schedule cleanup %q: %w", s.cleanupSpec, err)
	}

	s.cron.Start()
	s.log.Info().Str("cleanup", s.cleanupSpec).Msg("scheduler started")
	return nil
}

// Stop halts the schedule. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) enqueueCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.EnqueueCleanup(ctx); err != nil {
		s.log.Error().Err(err).Msg("enqueue cleanup failed")
	}
}

func (s *Scheduler) EnqueueCleanup(ctx context.Context) (string, error) {
	if s.queue == nil {
		return "", nil
	}
	id, err := s.queue.Publish(ctx, tasks.Task{Type: tasks.TypeCleanup, RequestedAt: s.now()}.Values())
	if err != nil {
		return "", err
	}
	s.log.Debug().Str("message_id", id).Msg("cleanup enqueued")
	return id, nil
}
