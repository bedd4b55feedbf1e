package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"claimaudit/internal/app"
	"claimaudit/internal/platform/config"
	"claimaudit/internal/platform/httpserver"
	"claimaudit/internal/platform/logger"
	"claimaudit/internal/platform/metrics"
	"claimaudit/internal/review/handler"
	httptransport "claimaudit/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Error("closing backends failed", "error", err)
		}
	}()

	go func() {
		if err := application.WatchRulebook(ctx); err != nil {
			log.Error("rulebook watcher stopped", "error", err)
		}
	}()

	router := httptransport.NewRouter(handler.New(application.Service, log), metrics.NewHTTP(), log)
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting claimaudit", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
