// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/casedesk/internal/api"
	"github.com/starford/casedesk/internal/caseservice"
	"github.com/starford/casedesk/internal/evidence"
	"github.com/starford/casedesk/internal/inbox"
	"github.com/starford/casedesk/internal/mcpserver"
	"github.com/starford/casedesk/internal/sse"
	"github.com/starford/casedesk/internal/storage"
	"github.com/starford/casedesk/internal/store"
)

// services is everything the HTTP and MCP front ends share.
type services struct {
	db       *store.DB
	cases    *caseservice.Service
	evidence *evidence.Service
}

// configure applies opts and installs the JSON logger as the default.
func configure(opts []Option, logOutput io.Writer) (*Config, *slog.Logger, error) {
	app := &application{logOutput: logOutput}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, errors.New("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("attachments_path", cfg.Attachments.Path),
		slog.String("inbox_dir", cfg.Import.InboxDir),
		slog.String("log_level", cfg.App.LogLevel.String()))
	return cfg, logger, nil
}

// openServices opens the database and attachment store. events may be nil.
func openServices(cfg *Config, events caseservice.EventPublisher) (*services, error) {
	files, err := storage.NewFS(cfg.Attachments.Path)
	if err != nil {
		return nil, fmt.Errorf("init attachment storage: %w", err)
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	var (
		caseOpts     []caseservice.Option
		evidenceOpts []evidence.Option
	)
	if events != nil {
		caseOpts = append(caseOpts, caseservice.WithEvents(events))
		evidenceOpts = append(evidenceOpts, evidence.WithEvents(events))
	}

	return &services{
		db:       db,
		cases:    caseservice.NewService(db, caseOpts...),
		evidence: evidence.NewService(db, files, evidenceOpts...),
	}, nil
}

// Run starts the HTTP server, the SSE broker and, when configured, the
// import inbox watcher.
func Run(ctx context.Context, opts ...Option) error {
	cfg, logger, err := configure(opts, os.Stdout)
	if err != nil {
		return err
	}

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	svc, err := openServices(cfg, broker)
	if err != nil {
		return err
	}
	defer svc.db.Close()

	handler := api.NewHandler(svc.cases, svc.evidence, api.SearchDefaults{
		MinRelevance:     cfg.Search.MinRelevance,
		MaxResults:       cfg.Search.MaxResults,
		SimilarThreshold: cfg.Search.SimilarThreshold,
		SimilarLimit:     cfg.Search.SimilarLimit,
		TagCount:         cfg.Search.TagCount,
	})
	apiRouter := api.NewRouter(handler, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := svc.db.Ping(r.Context()); err != nil {
			logger.Error("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Import drop folder.
	if cfg.Import.InboxDir != "" {
		inboxFiles, err := storage.NewFS(cfg.Import.InboxDir)
		if err != nil {
			return fmt.Errorf("init inbox: %w", err)
		}
		in := inbox.New(inboxFiles, svc.cases, logger)
		g.Go(func() error {
			if err := in.Watch(gCtx); err != nil {
				logger.Error("inbox watcher failed", slog.String("error", err.Error()))
			}
			return nil
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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Close the broker first so open event streams end and Shutdown
		// does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
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

// errShutdown cancels the group so the inbox watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs go to the writer set
// with WithLogOutput, stderr by default.
func RunMCP(_ context.Context, opts ...Option) error {
	cfg, logger, err := configure(opts, os.Stderr)
	if err != nil {
		return err
	}
	svc, err := openServices(cfg, nil)
	if err != nil {
		return err
	}
	defer svc.db.Close()

	logger.Info("MCP server starting on stdio")
	if err := mcpserver.New(svc.cases, svc.evidence).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
