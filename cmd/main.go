package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/studypath-backend/internal/app"
	"github.com/yungbote/studypath-backend/internal/observability"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Real environment variables win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Failed to read .env: %v\n", err)
	}

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, log)
	if err != nil {
		log.Error("App init failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
	defer a.Close()

	shutdownTracing := observability.InitOTel(ctx, log, a.Cfg.Otel)

	if err := a.Start(); err != nil {
		log.Error("App start failed", "error", err)
		return
	}

	runErr := make(chan error, 1)
	go func() { runErr <- a.Run() }()

	select {
	case err := <-runErr:
		if err != nil {
			log.Error("HTTP server stopped", "error", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("Tracer shutdown failed", "error", err)
	}
	log.Info("Server stopped")
}
