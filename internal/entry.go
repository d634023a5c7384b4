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
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/starford/planinsta/internal/access"
	"github.com/starford/planinsta/internal/api"
	"github.com/starford/planinsta/internal/gateway"
	"github.com/starford/planinsta/internal/logging"
	"github.com/starford/planinsta/internal/mcpserver"
	"github.com/starford/planinsta/internal/planservice"
	"github.com/starford/planinsta/internal/prefs"
	"github.com/starford/planinsta/internal/sse"
	"github.com/starford/planinsta/internal/storage"
	"github.com/starford/planinsta/internal/store"
)

const redisPrefix = "planinsta:"

// components are the collaborators shared by the HTTP and MCP entry points.
type components struct {
	slots    storage.Provider
	slotPath string // file backend only
	store    *store.Store
	plans    *planservice.Service
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// loggerTo returns the injected logger or builds one writing to w.
func (a *application) loggerTo(w io.Writer) *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return logging.New(w, a.config.App.LogLevel, a.config.App.LogFormat)
}

// OpenSlots opens the configured storage backend. For the file backend it
// also returns the path of the file that holds key.
func OpenSlots(cfg StorageConfig) (storage.Provider, string, error) {
	switch cfg.Backend {
	case storage.BackendSQLite:
		db, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, "", err
		}
		return db, "", nil
	case storage.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return storage.NewRedis(client, redisPrefix), "", nil
	default:
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, "", fmt.Errorf("create data dir: %w", err)
		}
		fs, err := storage.NewFS(cfg.Path)
		if err != nil {
			return nil, "", err
		}
		slotPath, err := fs.Path(cfg.Key)
		if err != nil {
			return nil, "", err
		}
		return fs, slotPath, nil
	}
}

func (a *application) build(events planservice.Events, logger *slog.Logger) (*components, error) {
	cfg := a.config

	slots, slotPath, err := OpenSlots(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	enforcer, err := access.NewEnforcer()
	if err != nil {
		_ = slots.Close()
		return nil, fmt.Errorf("init access: %w", err)
	}

	ai := a.ai
	if ai == nil {
		ai = gateway.New(gateway.Config{
			APIKey:      cfg.AI.APIKey,
			BaseURL:     cfg.AI.BaseURL,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		}, logger)
	}

	st := store.New(slots, cfg.Storage.Key)
	return &components{
		slots:    slots,
		slotPath: slotPath,
		store:    st,
		plans:    planservice.New(st, ai, enforcer, events, logger),
	}, nil
}

// NewIssuer builds the token issuer for the access configuration. Demo mode
// without a secret gets a random per-process one.
func NewIssuer(cfg AccessConfig) (*access.Issuer, error) {
	secret := cfg.Secret
	if secret == "" && cfg.Demo() {
		secret = uuid.NewString()
	}
	return access.NewIssuer(secret, cfg.TokenTTL)
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.loggerTo(os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("access_mode", cfg.Access.Mode),
		slog.String("ai_model", cfg.AI.Model),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	c, err := app.build(broker, logger)
	if err != nil {
		return err
	}
	defer c.slots.Close()

	theme, err := prefs.LoadTheme(ctx, c.slots, cfg.App.Theme)
	if err != nil {
		return fmt.Errorf("load theme: %w", err)
	}

	issuer, err := NewIssuer(cfg.Access)
	if err != nil {
		return fmt.Errorf("init tokens: %w", err)
	}
	tier, err := access.ParseTier(cfg.Access.DefaultTier)
	if err != nil {
		return err
	}

	apiRouter := api.NewRouter(api.Deps{
		Plans:       c.plans,
		Theme:       theme,
		Issuer:      issuer,
		DefaultTier: tier,
		DemoTokens:  cfg.Access.Demo(),
		Events:      broker,
	})

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, _, err := c.slots.Read(req.Context(), cfg.Storage.Key); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"storage unavailable"}`))
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

	// Announce plan slot rewrites by other processes.
	if c.slotPath != "" {
		g.Go(func() error {
			if err := store.Watch(gCtx, c.store, c.slotPath, logger, broker.PublishExternalChange); err != nil {
				logger.Warn("watcher disabled", slog.String("error", err.Error()))
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

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
// Logs go to stderr so they never corrupt the protocol stream.
func RunMCP(_ context.Context, tier access.Tier, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.loggerTo(os.Stderr)
	slog.SetDefault(logger)

	c, err := app.build(nil, logger)
	if err != nil {
		return err
	}
	defer c.slots.Close()

	logger.Info("Starting MCP server", slog.String("tier", string(tier)))
	return mcpserver.New(c.plans, tier).ServeStdio()
}
