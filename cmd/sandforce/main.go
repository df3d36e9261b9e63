package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sandforce/sandforce/internal/api"
	"github.com/sandforce/sandforce/internal/api/admin"
	"github.com/sandforce/sandforce/internal/api/composite"
	"github.com/sandforce/sandforce/internal/api/query"
	"github.com/sandforce/sandforce/internal/api/sobjects"
	"github.com/sandforce/sandforce/internal/config"
	"github.com/sandforce/sandforce/internal/database"
	"github.com/sandforce/sandforce/internal/seed"
	"github.com/sandforce/sandforce/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if err := seed.Seed(ctx, db); err != nil {
		return fmt.Errorf("seed data: %w", err)
	}

	if cfg.DemoRecords > 0 {
		if err := seed.Demo(ctx, db, cfg.DemoRecords); err != nil {
			return fmt.Errorf("seed demo records: %w", err)
		}
	}

	s := store.New(db)

	mux := http.NewServeMux()

	// REST API routes
	sobjects.RegisterRoutes(mux, s)
	query.RegisterRoutes(mux, s)
	composite.RegisterRoutes(mux, s)

	// Admin API
	admin.RegisterRoutes(mux, s.DB)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Catch-all: return 404 in the platform error format.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusNotFound, api.NewError(api.CodeNotFound,
			fmt.Sprintf("No route found for %s %s", r.Method, r.URL.Path),
		))
	})

	handler := api.Chain(mux,
		api.Recovery(),
		api.RequestID(),
		api.Auth(cfg.AuthToken),
		api.Metrics(),
		api.Logging(),
	)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("shutting down server")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting sandforce server", "addr", cfg.Addr, "version", api.APIVersion)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}
