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

	"github.com/starford/rollcall/internal/api"
	"github.com/starford/rollcall/internal/mcpserver"
	"github.com/starford/rollcall/internal/models"
	"github.com/starford/rollcall/internal/seed"
	"github.com/starford/rollcall/internal/session"
	"github.com/starford/rollcall/internal/sse"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stdout, opts...)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("seed_path", cfg.Seed.Path),
		slog.Bool("seed_watch", cfg.Seed.Watch),
		slog.String("assets_path", cfg.Assets.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	src, sess, err := app.openSession()
	if err != nil {
		return err
	}

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.SummaryThrottle)
	defer broker.Close()
	sess.Subscribe(func(c session.Change) {
		broker.PublishRosterEvent(c.Kind, c.StudentID, c.Version, c.Summary)
	})

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: NewHandler(cfg, sess, broker),
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Seed.Watch {
		g.Go(func() error {
			return app.watchSeed(gCtx, src, sess)
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

		// Ends open SSE streams so Shutdown does not wait on them.
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

// RunMCP serves the roster over MCP on stdin/stdout. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}

	src, sess, err := app.openSession()
	if err != nil {
		return err
	}

	if app.config.Seed.Watch {
		go func() {
			if err := app.watchSeed(ctx, src, sess); err != nil {
				app.logger.Error("seed watcher failed", slog.String("error", err.Error()))
			}
		}()
	}

	app.logger.Info("MCP server starting on stdio", slog.String("seed_path", app.config.Seed.Path))
	return mcpserver.New(sess).ServeStdio()
}

// NewHandler builds the root HTTP handler: health probes, images and the API.
func NewHandler(cfg *Config, sess *session.Session, broker *sse.Broker) http.Handler {
	apiRouter := api.NewRouter(sess, cfg.App.HTTP.CORSOrigins, broker)
	images := api.NewImageHandler(cfg.Assets.Path)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","students":%d}`, sess.Summary(context.Background()).Total)
	})

	r.Get("/images/{filename}", images.ServeFile)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	return r
}

var errShutdown = errors.New("shutdown")

func newApplication(defaultOutput io.Writer, opts ...Option) (*application, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logOutput == nil {
		app.logOutput = defaultOutput
	}

	// Initialize structured JSON logger.
	app.logger = slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(app.logger)

	return app, nil
}

func (a *application) openSession() (*seed.Source, *session.Session, error) {
	src, err := seed.Open(a.config.Seed.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open seed: %w", err)
	}
	roster, err := src.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load seed: %w", err)
	}

	a.logger.Info("Roster loaded", slog.Int("students", len(roster)))

	var opts []session.Option
	if a.now != nil {
		opts = append(opts, session.WithClock(a.now))
	}
	return src, session.New(roster, opts...), nil
}

func (a *application) watchSeed(ctx context.Context, src *seed.Source, sess *session.Session) error {
	return seed.Watch(ctx, src, seed.DefaultDebounce, a.logger, func(r models.Roster) {
		a.logger.Info("Roster reloaded", slog.Int("students", len(r)))
		sess.Reset(r)
	})
}
