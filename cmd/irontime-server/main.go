package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/existflow/irontime/internal/config"
	"github.com/existflow/irontime/internal/logger"
	"github.com/existflow/irontime/server"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logConfig := logger.ServerConfig(logger.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	logConfig.FilePath = cfg.LogFile
	if err := logger.Init(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to create server", logger.F("error", err))
		log.Fatalf("Failed to create server: %v", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Error closing server", logger.F("error", err))
		}
	}()

	errc := make(chan error, 1)
	go func() {
		logger.Info("IronTime server starting",
			logger.F("port", cfg.Port),
			logger.F("cache", cfg.CacheBackend),
			logger.F("week_start", cfg.WeekStart))
		errc <- srv.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", logger.F("error", err))
			return
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", logger.F("error", err))
		}
	}
}
