package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"llmconnector/internal/config"
	"llmconnector/internal/logging"
	"llmconnector/internal/metrics"
	"llmconnector/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.Log.Level, os.Stdout)
	if err := cfg.ValidateServer(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	log.Info().
		Int("port", cfg.Server.Port).
		Str("static_dir", cfg.Server.StaticDir).
		Str("env_file", cfg.EnvFile).
		Msg("starting llmconnector server")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var connectSrc []string
	if cfg.Backend.URL != "" {
		connectSrc = append(connectSrc, cfg.Backend.URL)
	}
	srv, err := server.New(server.Config{
		Dir:         cfg.Server.StaticDir,
		HealthPath:  cfg.Server.HealthPath,
		MetricsPath: cfg.Server.MetricsPath,
		ConnectSrc:  connectSrc,
		Metrics:     metrics.Global(),
		Logger:      log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize static server")
	}
	defer srv.Close()

	errCh := make(chan error, 2)
	go func() {
		if err := srv.Watch(ctx); err != nil {
			// Serving continues with the index loaded at startup.
			log.Warn().Err(err).Msg("index watcher stopped")
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
	}
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("runtime error")
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
	}

	log.Info().Msg("stopped")
}
