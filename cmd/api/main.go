package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docdocs-backend/internal/bootstrap"
	"docdocs-backend/internal/shared/config"
	"docdocs-backend/internal/shared/server"
	"docdocs-backend/internal/shared/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	telemetry.SetOutput(os.Stdout, telemetry.ParseLevel(cfg.LogLevel))

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("server.start", map[string]any{"addr": srv.Addr, "env": cfg.Env})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	case <-ctx.Done():
		telemetry.Info("server.shutdown", map[string]any{"addr": srv.Addr})
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
		}
	}
}
