package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/config"
	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/pkg/adapters/file"
	"github.com/aretw0/abacus/pkg/adapters/memory"
	redisadapter "github.com/aretw0/abacus/pkg/adapters/redis"
	"github.com/aretw0/abacus/pkg/observability"
	"github.com/aretw0/abacus/pkg/persistence/middleware"
	"github.com/aretw0/abacus/pkg/ports"
	"github.com/aretw0/abacus/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App holds the components shared by every command.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Engine   *abacus.Engine
	Store    ports.StateStore
	Sessions *session.Manager

	// Registry is set when metrics are enabled.
	Registry *prometheus.Registry

	closers []func() error
}

// AppOption configures NewApp.
type AppOption func(*appOptions)

type appOptions struct {
	logger  *slog.Logger
	metrics bool
	store   ports.StateStore
}

// WithAppLogger replaces the logger built from the config.
func WithAppLogger(logger *slog.Logger) AppOption {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// WithMetrics registers the engine counters (and the Go runtime collectors) in a
// dedicated registry.
func WithMetrics() AppOption {
	return func(o *appOptions) {
		o.metrics = true
	}
}

// WithStore bypasses the configured store.
func WithStore(store ports.StateStore) AppOption {
	return func(o *appOptions) {
		o.store = store
	}
}

// NewApp wires the logger, store, session manager and engine described by cfg.
func NewApp(ctx context.Context, cfg config.Config, opts ...AppOption) (*App, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{Config: cfg, Logger: o.logger}
	if app.Logger == nil {
		app.Logger = createLogger(cfg)
	}

	hooks := observability.LogHooks(app.Logger)
	if o.metrics {
		app.Registry = prometheus.NewRegistry()
		app.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics, err := observability.NewMetrics(app.Registry)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		hooks = hooks.Merge(metrics.Hooks())
	}

	app.Engine = abacus.New(
		abacus.WithLogger(app.Logger),
		abacus.WithLifecycleHooks(hooks),
		abacus.WithErrorClearDelay(cfg.Display.ErrorClearDelay),
	)

	sessionOpts := []session.Option{session.WithLogger(app.Logger)}
	app.Store = o.store
	if app.Store == nil {
		store, locker, err := app.createStore(ctx)
		if err != nil {
			return nil, err
		}
		app.Store, err = sealStore(store, cfg.Store)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		if locker != nil {
			sessionOpts = append(sessionOpts, session.WithLocker(locker))
		}
	}
	app.Sessions = session.NewManager(app.Store, sessionOpts...)

	return app, nil
}

// createStore selects the state store from store.kind. Redis also provides the
// distributed locker, so several processes can share sessions.
func (a *App) createStore(ctx context.Context) (ports.StateStore, ports.DistributedLocker, error) {
	switch a.Config.Store.Kind {
	case config.StoreFile:
		a.Logger.Debug("using file store", "dir", a.Config.Store.Dir)
		return file.New(a.Config.Store.Dir), nil, nil

	case config.StoreRedis:
		rc := a.Config.Redis
		store := redisadapter.New(rc.Addr, rc.Password, rc.DB,
			redisadapter.WithPrefix(rc.Prefix),
			redisadapter.WithTTL(rc.TTL),
		)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", rc.Addr, err)
		}
		a.closers = append(a.closers, store.Close)
		a.Logger.Debug("using redis store", "addr", rc.Addr, "prefix", store.Prefix())
		return store, redisadapter.NewLocker(store.Client(), store.Prefix()), nil
	}

	return memory.NewStore(), nil, nil
}

// sealStore wraps store with at-rest encryption when store.encryption_key is set.
func sealStore(store ports.StateStore, cfg config.StoreConfig) (ports.StateStore, error) {
	if cfg.EncryptionKey == "" {
		return store, nil
	}

	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	var fallback [][]byte
	for i, k := range cfg.PreviousKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("store.previous_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}

	seal, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallback,
	})
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, seal), nil
}

// Close releases the store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// createLogger configures the application logger. It writes to Stderr so Stdout stays
// free for the display and for MCP stdio.
func createLogger(cfg config.Config) *slog.Logger {
	return logging.New(logging.Options{
		Level:  logging.LevelFor(cfg.Debug),
		JSON:   cfg.Log.Format == "json",
		Writer: os.Stderr,
	})
}
