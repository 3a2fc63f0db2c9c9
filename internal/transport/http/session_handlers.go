package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/telemeet/signal-server/internal/core"
)

// SessionHandlers provides HTTP handlers for session inspection endpoints.
type SessionHandlers struct {
	registry *core.Registry
	log      *zerolog.Logger
}

// NewSessionHandlers creates a new session handlers instance.
func NewSessionHandlers(registry *core.Registry, logger *zerolog.Logger) *SessionHandlers {
	return &SessionHandlers{registry: registry, log: logger}
}

// SessionsResponse wraps the session listing.
type SessionsResponse struct {
	Sessions []core.SessionSummary `json:"sessions"`
}

// List returns all live sessions with participant counts.
// GET /api/sessions
func (h *SessionHandlers) List(c *gin.Context) {
	c.JSON(http.StatusOK, SessionsResponse{Sessions: h.registry.Sessions()})
}
