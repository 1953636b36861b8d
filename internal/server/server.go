package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pixeldust/internal/config"
	"pixeldust/internal/handlers"
	"pixeldust/internal/metrics"
	"pixeldust/internal/middleware"
)

type HTTPServer struct {
	name   string
	engine *gin.Engine
	server *http.Server
	log    zerolog.Logger
}

func newEngine(cfg *config.AppConfig) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.RedirectTrailingSlash = true
	engine.RedirectFixedPath = false
	engine.MaxMultipartMemory = cfg.Quota.ObjectCeilingBytes
	return engine
}

// NewRouter builds the API engine with the full middleware chain.
func NewRouter(cfg *config.AppConfig, log zerolog.Logger, m *metrics.Metrics, handlerSet handlers.HandlerSet) *gin.Engine {
	engine := newEngine(cfg)

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.Metrics(m),
		middleware.CORS(cfg.AllowCORSOrigins),
	)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	handlerSet.Mount(engine)
	return engine
}

func NewHTTPServer(cfg *config.AppConfig, log zerolog.Logger, m *metrics.Metrics, handlerSet handlers.HandlerSet) *HTTPServer {
	engine := NewRouter(cfg, log, m, handlerSet)
	return newHTTPServer("api", fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port), engine, cfg, log)
}

func newHTTPServer(name, addr string, engine *gin.Engine, cfg *config.AppConfig, log zerolog.Logger) *HTTPServer {
	srv := &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &HTTPServer{
		name:   name,
		engine: engine,
		server: srv,
		log:    log.With().Str("server", name).Logger(),
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) Start() error {
	s.log.Info().
		Str("addr", s.server.Addr).
		Msg("http server starting")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s listen and serve: %w", s.name, err)
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}
