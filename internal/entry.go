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

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/assets"
	"github.com/starford/folio/internal/docservice"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
)

// awaitShutdown blocks until a signal arrives on quit or ctx ends, then shuts
// srv down and calls stop so the remaining workers return.
func awaitShutdown(ctx context.Context, quit <-chan os.Signal, srv *http.Server, stop context.CancelFunc, logger *slog.Logger) {
	defer stop()

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, initiating shutdown")
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// core holds what both the HTTP server and the MCP server need.
type core struct {
	store  *storage.FS
	db     *index.DB
	assets assets.Store
	closer func()
}

func openCore(ctx context.Context, cfg *Config, logger *slog.Logger) (*core, error) {
	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
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

	c := &core{store: store, db: db, closer: func() { _ = db.Close() }}

	switch cfg.Assets.Backend {
	case AssetBackendGCS:
		g, err := assets.NewGCS(ctx, cfg.Assets.GCS)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init gcs assets: %w", err)
		}
		c.assets = g
		c.closer = func() {
			_ = g.Close()
			_ = db.Close()
		}
	default:
		c.assets = assets.NewFS(store)
	}
	logger.Info("assets backend ready", slog.String("backend", c.assets.Backend()))

	return c, nil
}

func (c *core) service(cfg *Config, logger *slog.Logger, events docservice.Publisher, m *metrics.Metrics) *docservice.Service {
	return docservice.New(c.store, c.db, docservice.Options{
		Assets:        c.assets,
		Events:        events,
		Metrics:       m,
		Logger:        logger,
		Reader:        cfg.Reader.Options,
		MaxAssetBytes: cfg.Assets.MaxBytes,
		CacheTTL:      cfg.Cache.TTL,
		CacheCleanup:  cfg.Cache.CleanupInterval,
	})
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("assets_backend", cfg.Assets.Backend),
		slog.String("version", app.version),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := openCore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.closer()

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	m := metrics.New()
	m.GaugeFunc("folio_sse_clients", "Connected SSE clients.", func() float64 {
		return float64(broker.ClientCount())
	})

	svc := c.service(cfg, logger, broker, m)

	apiRouter := api.NewRouter(svc, api.RouterOptions{
		AuthEnabled:    cfg.Auth.AuthEnabled(),
		Token:          cfg.Auth.Token,
		Events:         broker,
		MaxUploadBytes: int64(cfg.Assets.MaxBytes),
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := c.db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", m.Handler())

	r.Mount("/api", apiRouter)
	api.MountAssets(r, svc)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	// Out-of-band edits drop cached articles and reach open readers.
	g.Go(func() error {
		err := index.Watch(gCtx, c.db, c.store, cfg.Vault.Path, logger, func(kind, slug string) {
			svc.Invalidate(slug)
			broker.PublishProjectEvent(kind, sse.ProjectEvent{Slug: slug})
		})
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
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

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		awaitShutdown(gCtx, quit, httpServer, stop, logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio until stdin closes. Logs go to
// stderr unless WithLogOutput says otherwise.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	c, err := openCore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.closer()

	svc := c.service(cfg, logger, nil, nil)
	srv := mcpserver.New(svc, app.version)

	logger.Info("mcp: serving on stdio", slog.String("version", app.version))
	return srv.ServeStdio()
}
