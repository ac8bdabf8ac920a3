package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/aretw0/warden"
	"github.com/aretw0/warden/internal/config"
	"github.com/aretw0/warden/internal/cookies"
	"github.com/aretw0/warden/pkg/adapters/file"
	"github.com/aretw0/warden/pkg/adapters/memory"
	wredis "github.com/aretw0/warden/pkg/adapters/redis"
	"github.com/aretw0/warden/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	backend "github.com/redis/go-redis/v9"
)

// App is one CLI invocation's view of the session: the client, the cookie jar
// it sends, and the metrics its hooks feed.
type App struct {
	Config   *config.Config
	Client   *warden.Client
	Jar      *cookies.Jar
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Registry *prometheus.Registry

	closers []func() error
}

// NewApp builds the client described by cfg. Logs go to logOut.
func NewApp(cfg *config.Config, logOut io.Writer) (*App, error) {
	logger := createLogger(cfg, logOut)

	jar, err := cookies.Open(cfg.StateDir, 0)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics, err := observability.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Jar:      jar,
		Logger:   logger,
		Metrics:  metrics,
		Registry: registry,
	}

	opts := []warden.Option{
		warden.WithBaseURL(cfg.APIBase),
		warden.WithHTTPClient(&http.Client{Jar: jar}),
		warden.WithTimeout(cfg.Timeout),
		warden.WithLogger(logger),
		warden.WithSlotKey(cfg.SlotKey),
		warden.WithHooks(metrics.Hooks()),
		warden.WithHooks(observability.LogHooks(logger)),
		warden.WithAuthListener(metrics.Observe),
	}

	key, err := cfg.Key()
	if err != nil {
		return nil, err
	}

	backendOpts, err := app.backend(cfg, logger)
	if err != nil {
		_ = app.closeAll()
		return nil, err
	}
	opts = append(opts, backendOpts...)
	if key != nil {
		opts = append(opts, warden.WithEncryption(key))
	}

	client, err := warden.New(opts...)
	if err != nil {
		_ = app.closeAll()
		return nil, err
	}
	app.Client = client
	return app, nil
}

// backend selects where the slot lives and how changes travel between processes.
func (a *App) backend(cfg *config.Config, logger *slog.Logger) ([]warden.Option, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return []warden.Option{
			warden.WithStore(memory.NewStore()),
			warden.WithBroadcaster(memory.NewBroadcaster()),
		}, nil

	case config.StoreRedis:
		rdb := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, rdb.Close)
		return []warden.Option{
			warden.WithStore(wredis.NewFromClient(rdb, wredis.WithPrefix(cfg.Redis.Prefix+"slot:"))),
			warden.WithBroadcaster(wredis.NewBroadcaster(rdb,
				wredis.WithChannel(cfg.Redis.Channel),
				wredis.WithLogger(logger),
			)),
			warden.WithLocker(wredis.NewLocker(rdb, cfg.Redis.Prefix), cfg.LockTTL),
		}, nil

	case config.StoreFile:
		dir := filepath.Join(cfg.StateDir, "session")
		return []warden.Option{
			warden.WithStore(file.New(dir)),
			warden.WithBroadcaster(file.NewBroadcaster(dir, file.WithLogger(logger))),
		}, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// Start restores the persisted session.
func (a *App) Start(ctx context.Context) error {
	if err := a.Client.Start(ctx); err != nil {
		return err
	}
	if a.Client.Identity() != nil {
		a.Metrics.Authenticated().Set(1)
	}
	return nil
}

// Close stops sync, persists the cookie jar and releases backend connections.
func (a *App) Close() error {
	var errs []error
	if a.Client != nil {
		errs = append(errs, a.Client.Close())
	}
	if err := a.Jar.Save(); err != nil {
		errs = append(errs, fmt.Errorf("failed to save cookies: %w", err))
	}
	errs = append(errs, a.closeAll())
	return errors.Join(errs...)
}

func (a *App) closeAll() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// StatusHandler serves /metrics, /healthz and /session for this app.
func (a *App) StatusHandler() http.Handler {
	return observability.NewHandler(a.Client.Session, a.Registry)
}
