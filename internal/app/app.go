package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/ignite/internal/credstore"
	"github.com/aussiebroadwan/ignite/internal/credstore/drivers/file"
	"github.com/aussiebroadwan/ignite/internal/credstore/drivers/redis"
	"github.com/aussiebroadwan/ignite/internal/credstore/drivers/sqlite"
	"github.com/aussiebroadwan/ignite/internal/session"
	"github.com/aussiebroadwan/ignite/pkg/cryptox"
	"github.com/aussiebroadwan/ignite/pkg/httpx"
	"github.com/aussiebroadwan/ignite/pkg/ignitesdk"
	"github.com/aussiebroadwan/ignite/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the API client, the credential store and the session
// manager together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	registry *prometheus.Registry
	backend  credstore.Backend
	store    credstore.Store
	client   *ignitesdk.Client
	manager  *session.Manager
}

// Option configures an Application.
type Option func(*options)

type options struct {
	logOutput io.Writer
	backend   credstore.Backend
}

// WithLogOutput sends log lines to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithBackend uses backend instead of the one cfg.StoreDriver selects.
func WithBackend(backend credstore.Backend) Option {
	return func(o *options) { o.backend = backend }
}

// New creates an Application and restores any persisted session. A corrupt
// persisted session is cleared and logged, it does not fail startup.
func New(ctx context.Context, cfg Config, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "ignite",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  o.logOutput,
		}),
		registry: prometheus.NewRegistry(),
	}

	app.backend = o.backend
	if app.backend == nil {
		backend, err := app.openBackend(ctx)
		if err != nil {
			return nil, err
		}
		app.backend = backend
	}

	if err := app.initStore(); err != nil {
		_ = app.backend.Close()
		return nil, err
	}

	app.initSession()

	if err := app.manager.Bootstrap(ctx); err != nil {
		if !errors.Is(err, credstore.ErrIncompletePair) {
			_ = app.Close()
			return nil, fmt.Errorf("failed to restore session: %w", err)
		}
		app.logger.Warn("discarded incomplete persisted session", "error", err)
	}

	return app, nil
}

// openBackend opens the storage backend selected by the configuration.
func (app *Application) openBackend(ctx context.Context) (credstore.Backend, error) {
	switch app.cfg.StoreDriver {
	case DriverSQLite:
		db, err := sqlite.Open(app.cfg.DatabaseFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		app.logger.Debug("database migrations applied", "file", app.cfg.DatabaseFile)
		return db, nil

	case DriverRedis:
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		backend, err := redis.Open(dialCtx, app.cfg.RedisURL, redis.WithPrefix(app.cfg.RedisPrefix))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return backend, nil

	case DriverFile:
		return file.New(app.cfg.SessionFile), nil

	case DriverMemory:
		return credstore.NewMemoryBackend(), nil
	}

	return nil, fmt.Errorf("unknown store driver %q", app.cfg.StoreDriver)
}

// initStore builds the record store, sealed when key material is configured.
func (app *Application) initStore() error {
	var storeOpts []credstore.Option

	key, err := cryptox.LoadKeyMaterial(app.cfg.MasterKeyPath, app.cfg.MasterKey)
	switch {
	case errors.Is(err, cryptox.ErrNoKeyMaterial):
		app.logger.Debug("no master key configured, records stored unsealed")
	case err != nil:
		return fmt.Errorf("failed to load master key: %w", err)
	default:
		sealer, err := cryptox.NewSealer(key)
		if err != nil {
			return fmt.Errorf("failed to create sealer: %w", err)
		}
		storeOpts = append(storeOpts, credstore.WithSealer(sealer))
	}

	app.store = credstore.New(app.backend, storeOpts...)
	return nil
}

// initSession builds the API client and the session manager.
func (app *Application) initSession() {
	limiter := httpx.RateLimitConfig{
		RequestsPerWindow: app.cfg.RateLimit,
		Window:            time.Second,
		Burst:             app.cfg.RateBurst,
	}.Limiter()

	app.client = ignitesdk.NewClient(app.cfg.APIURL,
		ignitesdk.WithTimeout(app.cfg.HTTPTimeout),
		ignitesdk.WithLogger(app.logger),
		ignitesdk.WithRateLimit(limiter),
		ignitesdk.WithMetrics(ignitesdk.NewMetrics(app.registry)),
	)

	app.manager = session.NewManager(app.client, app.store, session.WithLogger(app.logger))
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger }

// Client returns the API client.
func (app *Application) Client() *ignitesdk.Client { return app.client }

// Session returns the session manager.
func (app *Application) Session() *session.Manager { return app.manager }

// Store returns the credential store.
func (app *Application) Store() credstore.Store { return app.store }

// WriteMetrics writes the client metrics in the Prometheus text format.
func (app *Application) WriteMetrics(w io.Writer) error {
	families, err := app.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// Close releases the session manager and the storage backend.
func (app *Application) Close() error {
	app.manager.Close()

	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing credential store", "error", err)
		return err
	}
	return nil
}
