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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/BrayneSnax/pdaok/internal/api"
	"github.com/BrayneSnax/pdaok/internal/inbox"
	"github.com/BrayneSnax/pdaok/internal/insight"
	"github.com/BrayneSnax/pdaok/internal/mcpserver"
	"github.com/BrayneSnax/pdaok/internal/migrate"
	"github.com/BrayneSnax/pdaok/internal/models"
	"github.com/BrayneSnax/pdaok/internal/oracle"
	"github.com/BrayneSnax/pdaok/internal/sse"
	"github.com/BrayneSnax/pdaok/internal/state"
	"github.com/BrayneSnax/pdaok/internal/store"
	"github.com/BrayneSnax/pdaok/internal/transmit"
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
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize durable store.
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	// Migration is a blocking prerequisite: nothing reads the document
	// until it has completed.
	if err := migrate.Run(db, logger); err != nil {
		return fmt.Errorf("migration: %w", err)
	}

	// State controller with debounced persistence.
	ctrl := state.NewController(db, logger, cfg.State.DebounceQuiet)
	defer ctrl.Close()

	// External text generator. Without an API key every generation
	// call fails recoverably and the fallback paths take over.
	var gen oracle.Generator
	if cfg.Oracle.APIKey != "" {
		gen, err = oracle.NewGemini(ctx, cfg.Oracle.APIKey, cfg.Oracle.Model, cfg.Oracle.Timeout)
		if err != nil {
			return fmt.Errorf("init oracle: %w", err)
		}
	} else {
		logger.Warn("oracle: no api key configured, generation disabled")
		gen = oracle.Unavailable{}
	}

	cache := insight.New(db, gen, logger, cfg.Insight.MinEntries)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	sched := transmit.New(db, gen, logger, transmit.Config{
		PollInterval: cfg.Scheduler.PollInterval,
		MinGap:       cfg.Scheduler.MinGap,
		RecentWindow: cfg.Scheduler.RecentWindow,
		MinSignal:    cfg.Scheduler.MinSignal,
	}, func(t models.Transmission) {
		broker.PublishTransmissionEvent("created", t.ID, t.EntityName)
	})
	reader := transmit.NewReader(db, sched, ctrl.BuildTransmissionContext, cfg.Scheduler.ReaderInterval, logger)

	// runCtx is cancelled after HTTP shutdown so the pollers exit,
	// g.Wait returns, and the deferred controller close can flush any
	// pending snapshot.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(runCtx)

	// Transmission scheduler and polling reader.
	g.Go(func() error {
		sched.Start(gCtx, ctrl.BuildTransmissionContext)
		return nil
	})
	g.Go(func() error {
		reader.Start(gCtx)
		return nil
	})

	// Optional inbox import watcher.
	if cfg.Inbox.Path != "" {
		g.Go(func() error {
			if err := inbox.Watch(gCtx, ctrl, cfg.Inbox.Path, logger); err != nil {
				logger.Warn("inbox watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	if app.mcpMode {
		// MCP stdio mode: serve tools instead of HTTP.
		g.Go(func() error {
			srv := mcpserver.New(ctrl, reader, cache)
			logger.Info("MCP server starting on stdio")
			return srv.ServeStdio()
		})
		return g.Wait()
	}

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
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

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(ctrl, reader, cache, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// Start HTTP server.
	g.Go(func() error {
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

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Release the scheduler, reader, and inbox goroutines.
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
