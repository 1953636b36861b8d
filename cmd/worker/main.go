package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pixeldust/internal/bootstrap"
	"pixeldust/internal/config"
	"pixeldust/internal/log"
	"pixeldust/internal/queue"
	"pixeldust/internal/service"
	"pixeldust/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Log.Level).With().Str("process", "worker").Logger()

	if cfg.Postgres.InMemory() {
		logger.Fatal().Msg("worker needs a postgres dsn, the in-memory store is private to the api process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := bootstrap.Open(ctx, cfg, logger, bootstrap.Options{RequireRedis: true})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker startup failed")
	}
	defer backend.Close()

	services := service.New(backend.Repos, backend.Blobs, cfg, backend.Metrics, logger)
	processor := tasks.NewProcessor(services.Files, backend.Metrics, logger)
	consumer := queue.NewConsumer(backend.Redis, queue.OptionsFrom(cfg.Redis, cfg.Worker), logger, processor)

	metricsServer := &http.Server{
		Addr:              cfg.Worker.MetricsAddr,
		Handler:           promhttp.HandlerFor(backend.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	logger.Info().Str("stream", cfg.Redis.Stream).Str("group", cfg.Redis.Group).Msg("worker started")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
		stop()
		shutdownMetrics(metricsServer)
		backend.Close()
		os.Exit(1)
	}

	logger.Info().Msg("shutdown signal received")
	shutdownMetrics(metricsServer)
}

func shutdownMetrics(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
