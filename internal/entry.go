// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/staffline/internal/api"
	"github.com/starford/staffline/internal/index"
	"github.com/starford/staffline/internal/mcpserver"
	"github.com/starford/staffline/internal/scoreservice"
	"github.com/starford/staffline/internal/session"
	"github.com/starford/staffline/internal/sse"
	"github.com/starford/staffline/internal/storage"
)

// library bundles the storage and index every entry point needs.
type library struct {
	store storage.Provider
	db    *index.DB
	svc   *scoreservice.Service
}

func openLibrary(cfg *Config, logger *slog.Logger) (*library, error) {
	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Library.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return &library{store: store, db: db, svc: scoreservice.NewService(store, db)}, nil
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// NewHandler builds the full HTTP handler: health checks, the API under
// /api and the event stream at /api/events.
func NewHandler(cfg *Config, svc *scoreservice.Service, sessions *session.Manager, broker *sse.Broker) http.Handler {
	apiRouter := api.NewRouter(svc, sessions, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, nil)
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, svc.Ready(r.Context()))
	})

	r.Mount("/api", apiRouter)
	return r
}

func writeHealth(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg, app.logOut)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_path", cfg.Library.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.Int("visible_measures", cfg.Geometry.VisibleMeasures),
		slog.String("log_level", cfg.App.LogLevel.String()))

	lib, err := openLibrary(cfg, logger)
	if err != nil {
		return err
	}
	defer lib.db.Close()

	broker := sse.NewBroker(cfg.Events.LibraryThrottle)
	defer broker.Close()

	sessions := session.NewManager(lib.svc, cfg.Geometry, func(e session.Event) {
		broker.Publish(sse.Event{Type: e.Kind, Data: e, Scope: e.SessionID})
	})

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           NewHandler(cfg, lib.svc, sessions, broker),
		ReadHeaderTimeout: cfg.App.HTTP.ReadHeaderTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// File watcher feeds library events to SSE clients.
	g.Go(func() error {
		if err := index.NewWatcher(lib.db, lib.store, cfg.Library.Path, logger).OnChange(broker.PublishScoreEvent).Run(gCtx); err != nil {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		// end open event streams so Shutdown does not wait on them
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.HTTP.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr so they
// never mix with the protocol stream.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg, app.logOut)
	slog.SetDefault(logger)

	lib, err := openLibrary(cfg, logger)
	if err != nil {
		return err
	}
	defer lib.db.Close()

	logger.Info("Starting MCP server", slog.String("library_path", cfg.Library.Path))
	return mcpserver.New(lib.svc, cfg.Geometry).ServeStdio()
}
