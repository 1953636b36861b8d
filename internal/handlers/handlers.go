package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pixeldust/internal/config"
	"pixeldust/internal/middleware"
	"pixeldust/internal/models"
	"pixeldust/internal/service"
)

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Config   *config.AppConfig
	Log      zerolog.Logger
	Services *service.Services
	Gatherer prometheus.Gatherer
	// Redis backs credential throttling. Nil disables it.
	Redis  redis.Cmdable
	Checks map[string]HealthCheck
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	auth     *service.AuthService
	sessions *service.SessionService
	settings *service.SettingsService
	uploads  *service.UploadService
	files    *service.FileService
	exporter http.Handler
	redis    redis.Cmdable
	checks   map[string]HealthCheck
}

func NewHandlerSet(deps Deps) HandlerSet {
	var exporter http.Handler
	if deps.Gatherer != nil {
		exporter = promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})
	}
	return HandlerSet{
		log:      deps.Log,
		cfg:      deps.Config,
		auth:     deps.Services.Auth,
		sessions: deps.Services.Sessions,
		settings: deps.Services.Settings,
		uploads:  deps.Services.Uploads,
		files:    deps.Services.Files,
		exporter: exporter,
		redis:    deps.Redis,
		checks:   deps.Checks,
	}
}

func (h HandlerSet) Mount(router gin.IRouter) {
	router.GET("/health", h.Health)
	if h.exporter != nil {
		router.GET("/metrics", h.Metrics)
	}

	throttle := middleware.Throttle(h.redis, h.cfg.Throttle, h.log)
	router.POST("/register", throttle, h.Register)
	router.POST("/login", throttle, h.Login)

	router.GET("/img/:filename", h.ServeImage)
	router.GET("/raw/:filename", h.ServeRaw)
	router.GET("/files/:id/view", h.ViewFile)
	router.GET("/files/:id/info", h.FileInfo)

	protected := router.Group("")
	protected.Use(middleware.Auth(h.auth))
	{
		protected.GET("/users/me", h.Me)
		protected.PUT("/profile", h.UpdateProfile)
		protected.POST("/change-password", h.ChangePassword)

		protected.GET("/settings", h.GetSettings)
		protected.PUT("/settings", h.UpdateSettings)

		protected.GET("/sessions", h.ListSessions)
		protected.DELETE("/sessions/:token", h.TerminateSession)

		protected.POST("/upload", h.Upload)
		protected.GET("/files", h.ListFiles)
		protected.DELETE("/files/wipe", h.WipeFiles)
		protected.GET("/files/export", h.ExportFiles)
		protected.DELETE("/files/:id", h.DeleteFile)
		protected.GET("/storage/usage", h.StorageUsage)
	}
}

func currentUser(c *gin.Context) (models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return user, ok
}

// writeError maps service errors onto HTTP status codes. Anything it does not
// recognise is logged and reported as a 500 without details.
func (h HandlerSet) writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_server_error"
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "invalid_credentials"
		c.Header("WWW-Authenticate", "Bearer")
	case errors.Is(err, service.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
		c.Header("WWW-Authenticate", "Bearer")
	case errors.Is(err, service.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrQuotaExceeded):
		status, code = http.StatusRequestEntityTooLarge, "quota_exceeded"
	case errors.Is(err, service.ErrUnsupportedMediaType):
		status, code = http.StatusUnsupportedMediaType, "unsupported_media_type"
	case errors.Is(err, service.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, service.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	}

	_ = c.Error(err)
	switch status {
	case http.StatusInternalServerError:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	case http.StatusBadRequest, http.StatusConflict, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		c.AbortWithStatusJSON(status, gin.H{"error": code, "detail": err.Error()})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": code})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": err.Error()})
}
