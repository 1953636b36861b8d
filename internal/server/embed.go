package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pixeldust/internal/config"
	"pixeldust/internal/middleware"
)

// NewEmbedRouter answers /img/<name> with a redirect to the API's share link
// so chat clients that unfurl links on a separate host still reach the image.
// Every other path is a 404.
func NewEmbedRouter(cfg *config.AppConfig, log zerolog.Logger) *gin.Engine {
	engine := newEngine(cfg)
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
	)

	target := strings.TrimRight(cfg.Embed.Target, "/")
	engine.GET("/img/*filename", func(c *gin.Context) {
		name := strings.TrimPrefix(c.Param("filename"), "/")
		if name == "" || strings.Contains(name, "/") {
			c.Status(http.StatusNotFound)
			return
		}
		c.Redirect(http.StatusFound, target+"/img/"+url.PathEscape(name))
	})
	engine.NoRoute(func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	return engine
}

func NewEmbedServer(cfg *config.AppConfig, log zerolog.Logger) *HTTPServer {
	return newHTTPServer("embed", cfg.Embed.Addr, NewEmbedRouter(cfg, log), cfg, log)
}
