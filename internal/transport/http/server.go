package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/telemeet/signal-server/internal/config"
	"github.com/telemeet/signal-server/internal/core"
	"github.com/telemeet/signal-server/internal/metrics"
)

// NewServer builds the HTTP server: health, metrics, session listing, and
// the websocket endpoint.
func NewServer(hub *core.Hub, registry *core.Registry, m *metrics.Metrics, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(LoggerMiddleware(logger), gin.Recovery())

	router.GET("/health", healthHandler)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	sessions := NewSessionHandlers(registry, logger)
	router.GET("/api/sessions", sessions.List)

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
