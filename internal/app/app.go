package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/telemeet/signal-server/internal/config"
	"github.com/telemeet/signal-server/internal/core"
	"github.com/telemeet/signal-server/internal/metrics"
	"github.com/telemeet/signal-server/internal/store"
	"github.com/telemeet/signal-server/internal/store/sqlite"
	transporthttp "github.com/telemeet/signal-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.HistoryDSN)
	if err != nil {
		return nil, fmt.Errorf("init history store: %w", err)
	}
	logger.Info().Str("history_dsn", cfg.HistoryDSN).Msg("history store initialized")

	m := metrics.New()
	registry := core.NewRegistry(st, cfg.SessionCapacity, logger)
	hub := core.NewHub(registry, m, logger, cfg.PingInterval)
	server := transporthttp.NewServer(hub, registry, m, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the history store.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close history store")
		} else {
			a.log.Info().Msg("history store closed")
		}
	}
}
