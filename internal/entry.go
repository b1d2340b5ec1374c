// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/marbeck/flashdeck/internal/api"
	"github.com/marbeck/flashdeck/internal/cast"
	"github.com/marbeck/flashdeck/internal/deckservice"
	"github.com/marbeck/flashdeck/internal/mcpserver"
	"github.com/marbeck/flashdeck/internal/mirror"
	"github.com/marbeck/flashdeck/internal/seeds"
	"github.com/marbeck/flashdeck/internal/session"
	"github.com/marbeck/flashdeck/internal/store"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("mirror_path", cfg.Mirror.Path),
		slog.String("media_dir", cfg.Media.Dir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	for _, dir := range []string{filepath.Dir(cfg.Store.Path), cfg.Media.Dir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	// Open the deck store.
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	// Load the collection: store first, mirror fallback, starter decks
	// when both are empty.
	decks := deckservice.New(db, mirror.New(cfg.Mirror.Path), logger)
	if err := decks.Load(ctx); err != nil {
		return fmt.Errorf("load decks: %w", err)
	}
	defer decks.Flush()

	// Cast channel.
	broker := cast.NewBroker(2 * time.Second)
	defer broker.Close()
	decks.OnChange(broker.PublishDeckEvent)

	// Sessions push card and results messages through the broker.
	sessions := session.NewManager(decks, broker, cfg.Study.EngineConfig(), logger)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(decks, sessions, broker, cfg.Media.Dir))
	r.Mount("/media", api.NewMediaRouter(cfg.Media.Dir))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Keep seed decks in sync with the seeds directory.
	if cfg.Seeds.Dir != "" {
		syncer := seeds.NewSyncer(cfg.Seeds.Dir, decks, logger)
		if err := syncer.SyncOnce(gCtx); err != nil {
			logger.Warn("initial seed sync failed", slog.String("error", err.Error()))
		}
		g.Go(func() error {
			return syncer.Watch(gCtx)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP stdio server over the deck collection. Logs go
// to stderr so stdout stays clean for the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	decks := deckservice.New(db, mirror.New(cfg.Mirror.Path), logger)
	if err := decks.Load(ctx); err != nil {
		return fmt.Errorf("load decks: %w", err)
	}
	defer decks.Flush()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(decks).ServeStdio()
}
