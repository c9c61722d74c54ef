package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rocketscience/rocketscience/pkg/config"
	"github.com/rocketscience/rocketscience/pkg/local"
	"github.com/rocketscience/rocketscience/pkg/remote"
	"github.com/rocketscience/rocketscience/pkg/repository"
	"github.com/rocketscience/rocketscience/pkg/stores"
	"github.com/rocketscience/rocketscience/pkg/telemetry"
)

// app holds the components shared by commands.
type app struct {
	cfg    *config.Config
	loader *config.Loader
	tel    *telemetry.Telemetry
	store  *stores.SQLiteStore
	repo   *repository.Repository
}

func loadConfig() (*config.Config, *config.Loader, error) {
	loader := config.NewLoader(configPath, log.Logger)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, loader, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*stores.SQLiteStore, error) {
	store, err := stores.NewSQLiteStore(stores.Config{
		Path:         cfg.Store.Path,
		MaxOpenConns: cfg.Store.MaxOpenConns,
		BusyTimeout:  cfg.Store.BusyTimeout,
		PollInterval: cfg.Store.PollInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// newApp loads the configuration and wires the store, the API client and the
// repository. One-shot commands never follow the cache, so their streams end.
func newApp(ctx context.Context, oneShot bool) (*app, error) {
	cfg, loader, err := loadConfig()
	if err != nil {
		return nil, err
	}

	tel, err := telemetry.NewTelemetry(&cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	userAgent := cfg.API.UserAgent
	if userAgent == "" {
		userAgent = "rocketscience/" + appVersion
	}

	client, err := remote.NewClient(remote.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: userAgent,
	},
		remote.WithLogger(tel.Logger),
		remote.WithMetrics(tel.Metrics),
		remote.WithTracer(tel.Tracer),
	)
	if err != nil {
		_ = store.Close()
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	repo := repository.New(client, local.NewDataSource(store, tel.Logger),
		repository.WithFollow(cfg.Sync.FollowCache && !oneShot),
		repository.WithCoalescing(cfg.Sync.Coalesce),
		repository.WithPersistTimeout(cfg.Sync.PersistTimeout),
		repository.WithTelemetry(tel),
	)

	tel.Logger.WithFields(map[string]interface{}{
		"config":   loader.ConfigFile(),
		"base_url": cfg.API.BaseURL,
		"store":    store.Path(),
	}).Debug("application initialized")

	return &app{cfg: cfg, loader: loader, tel: tel, store: store, repo: repo}, nil
}

// operation starts the instrumented span covering one command. Streams opened
// with its context are traced as children of it.
func (a *app) operation(ctx context.Context, name string) *telemetry.InstrumentedContext {
	return telemetry.StartOperation(a.tel.WithContext(ctx), name)
}

// Close releases the store and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	return errors.Join(a.store.Close(), a.tel.Shutdown(context.WithoutCancel(ctx)))
}
