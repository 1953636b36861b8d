package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pixeldust/internal/cache"
	"pixeldust/internal/config"
	"pixeldust/internal/database"
	"pixeldust/internal/handlers"
	"pixeldust/internal/metrics"
	"pixeldust/internal/repository"
	"pixeldust/internal/repository/memory"
	"pixeldust/internal/service"
	"pixeldust/internal/storage"
)

// Backend is everything a process needs to run the services.
type Backend struct {
	Repos    service.Repositories
	Blobs    storage.BlobStore
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	log zerolog.Logger
}

type Options struct {
	Migrate bool
	// RequireRedis fails Open when redis is unreachable instead of running
	// without it.
	RequireRedis bool
}

func Open(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger, opts Options) (*Backend, error) {
	b := &Backend{log: log}

	b.Registry = prometheus.NewRegistry()
	b.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	b.Metrics = metrics.New(b.Registry)

	if cfg.Postgres.InMemory() {
		log.Warn().Msg("using in-memory store, data is lost on exit")
		store := memory.NewStore()
		b.Repos = service.Repositories{
			Users:    store.Users(),
			Sessions: store.Sessions(),
			Files:    store.Files(),
			Settings: store.Settings(),
		}
	} else {
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.Pool = pool
		if opts.Migrate {
			if err := database.Migrate(ctx, pool); err != nil {
				b.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			log.Info().Msg("migrations applied")
		}
		b.Repos = service.Repositories{
			Users:    repository.NewUserRepository(pool),
			Sessions: repository.NewSessionRepository(pool),
			Files:    repository.NewFileRepository(pool),
			Settings: repository.NewSettingsRepository(pool),
		}
	}

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("blob store: %w", err)
	}
	b.Blobs = blobs

	client, err := cache.NewRedisClient(ctx, cfg.Redis, log)
	switch {
	case err == nil:
		b.Redis = client
	case opts.RequireRedis:
		b.Close()
		return nil, fmt.Errorf("redis: %w", err)
	default:
		log.Warn().Err(err).Msg("redis unavailable, scheduling and throttling disabled")
	}

	return b, nil
}

// Checks returns the dependency probes served by /health.
func (b *Backend) Checks() map[string]handlers.HealthCheck {
	checks := make(map[string]handlers.HealthCheck)
	if b.Pool != nil {
		checks["database"] = b.Pool.Ping
	}
	if b.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return b.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

func (b *Backend) Close() {
	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil {
			b.log.Error().Err(err).Msg("redis close error")
		}
	}
	if b.Pool != nil {
		b.Pool.Close()
	}
}
