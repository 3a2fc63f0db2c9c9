package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/telemeet/signal-server/internal/app"
	"github.com/telemeet/signal-server/internal/config"
	"github.com/telemeet/signal-server/internal/log"
)

func main() {
	var overrides config.Config
	configPath := flag.String("config", "", "path to config.yaml")
	flag.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flag.DurationVar(&overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flag.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.IntVar(&overrides.SessionCapacity, "session-capacity", 0, "max participants per session (0 = unbounded)")
	flag.DurationVar(&overrides.PingInterval, "ping-interval", 0, "liveness probe interval")
	flag.StringVar(&overrides.HistoryDSN, "history-dsn", "", "sqlite DSN for message history")
	flag.Parse()

	bootLogger := log.New(firstNonEmpty(overrides.LogLevel, "info"))
	cfg, path, err := config.Load(bootLogger, *configPath)
	if err != nil {
		stdlog.Fatalf("load config: %v", err)
	}
	cfg.UpdateFrom(overrides)

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting signal server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build application")
	}

	start := time.Now()
	if err := application.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Dur("uptime", time.Since(start)).Msg("server stopped")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
