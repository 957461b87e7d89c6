package cli

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mmynk/multas/internal/cache"
	"github.com/mmynk/multas/internal/config"
	"github.com/mmynk/multas/internal/metrics"
	"github.com/mmynk/multas/internal/settlement"
	"github.com/mmynk/multas/internal/storage/sqlite"
	"github.com/mmynk/multas/pkg/logging"
)

// app is the set of long-lived dependencies shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *sqlite.SQLiteStore
	registry *prometheus.Registry
	recorder *metrics.Recorder
	engine   *settlement.Engine
	closers  []func() error
}

// newApp loads configuration, applies flag overrides, and opens the store.
func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitConfig, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	logger := logging.Setup(cfg.LogLevel)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to open database", err)
	}
	logger.Info("Storage initialized", "database", cfg.DBPath)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		registry: prometheus.NewRegistry(),
		closers:  []func() error{store.Close},
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.recorder = metrics.New(a.registry)

	guard, err := a.weekGuard(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.engine = settlement.New(store,
		settlement.WithGuard(guard),
		settlement.WithRetry(cfg.RetryAttempts, cfg.RetryBackoff),
		settlement.WithMetrics(a.recorder),
		settlement.WithLogger(logger),
	)
	return a, nil
}

// weekGuard returns the Redis guard when redis_url is set, otherwise an
// in-process one.
func (a *app) weekGuard(ctx context.Context) (cache.WeekGuard, error) {
	if a.cfg.RedisURL == "" {
		return cache.NewMemory(), nil
	}

	client, err := cache.Connect(a.cfg.RedisURL)
	if err != nil {
		return nil, WrapExitError(ExitConfig, "invalid redis_url", err)
	}
	a.closers = append(a.closers, client.Close)

	if err := client.Ping(ctx).Err(); err != nil {
		// The guard is only a hint; settlement still works without Redis.
		a.logger.Warn("Redis unreachable, week guard falls back to the database", "error", err)
	} else {
		a.logger.Info("Redis week guard enabled")
	}
	return cache.NewRedis(client, a.cfg.CacheTTL), nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("error closing resource", "error", err)
		}
	}
}
