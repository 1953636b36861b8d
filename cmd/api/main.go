package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pixeldust/internal/bootstrap"
	"pixeldust/internal/config"
	"pixeldust/internal/database"
	"pixeldust/internal/handlers"
	"pixeldust/internal/jobs"
	"pixeldust/internal/log"
	"pixeldust/internal/queue"
	"pixeldust/internal/server"
	"pixeldust/internal/service"
)

const streamMaxLen = 10000

var skipMigrate bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "pixeldust",
		Short: "PixelDust image hosting API",
		Long: `PixelDust stores images under a per-account quota and serves them by
short public names.

Configuration is read from config.yaml, a .env file and PIXELDUST_* variables.
Set PIXELDUST_POSTGRES_DSN=memory:// to run without a database.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.PersistentFlags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on start")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run migrations, the HTTP API and the cleanup scheduler",
		RunE:  runServe,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE:  runMigrate,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "embed",
		Short: "Run the embed redirect server",
		RunE:  runEmbed,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.AppConfig, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log.New(cfg.Environment, cfg.Log.Level), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := bootstrap.Open(ctx, cfg, logger, bootstrap.Options{Migrate: !skipMigrate})
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return err
	}
	defer backend.Close()

	services := service.New(backend.Repos, backend.Blobs, cfg, backend.Metrics, logger)

	deps := handlers.Deps{
		Config:   cfg,
		Log:      logger,
		Services: services,
		Gatherer: backend.Registry,
		Checks:   backend.Checks(),
	}
	var scheduler *jobs.Scheduler
	if backend.Redis != nil {
		deps.Redis = backend.Redis
		producer := queue.NewProducer(backend.Redis, cfg.Redis.Stream, streamMaxLen)
		scheduler = jobs.NewScheduler(producer, cfg.Cron.Cleanup, logger)
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
			scheduler = nil
		}
	}

	httpServer := server.NewHTTPServer(cfg, logger, backend.Metrics, handlers.NewHandlerSet(deps))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
			return err
		}
	}

	shutdown(logger, httpServer)
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	logger.Info().Msg("server exited cleanly")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	pool, err := database.NewPostgresPool(cmd.Context(), cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(cmd.Context(), pool); err != nil {
		return err
	}
	logger.Info().Msg("migrations applied")
	return nil
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedServer := server.NewEmbedServer(cfg, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- embedServer.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	shutdown(logger, embedServer)
	return nil
}

func shutdown(logger zerolog.Logger, srv *server.HTTPServer) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
