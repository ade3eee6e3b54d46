// The engine command runs the sales analytics background service: it
// simulates sales traffic, rolls up statistics, replenishes stock, and
// keeps a realtime stats snapshot published to the stats cache.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/storeops/sales-analytics-engine/analytics"
	"github.com/storeops/sales-analytics-engine/config"
	"github.com/storeops/sales-analytics-engine/salesstore"
	"github.com/storeops/sales-analytics-engine/scheduler"
	"github.com/storeops/sales-analytics-engine/simulation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "engine:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	logger := &sugaredLogger{sugar: zapLogger.Sugar()}

	logger.Info("sales analytics engine starting", "db", cfg.Summary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	pingCtx, cancelPing := context.WithTimeout(ctx, 10*time.Second)
	defer cancelPing()

	if err = store.Ping(pingCtx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}

	logger.Info("database connection verified")

	statsCache := buildStatsCache(ctx, cfg, logger)
	if closer, ok := statsCache.(*analytics.RedisStatsCache); ok {
		defer func() { _ = closer.Close() }()
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	patterns := simulation.NewPatterns(patternConfigFrom(cfg), rng)
	catalog := simulation.NewCatalog(store, rng)

	if err = catalog.Reload(ctx); err != nil {
		return fmt.Errorf("loading initial catalog: %w", err)
	}

	generator := simulation.NewGenerator(patterns, catalog, store, cfg.TaxRate, logger)
	aggregator := analytics.NewAggregator(store, logger)
	realtime := analytics.NewRealtime(store, statsCache, cfg.StatsCacheTTL, logger)

	jobs := buildJobs(cfg, generator, catalog, store, aggregator, realtime, logger)

	if !cfg.EnableSimulation {
		logger.Info("simulation disabled, running aggregation jobs only")
	}

	logger.Info("scheduler starting", "jobs", len(jobs))

	scheduler.New(logger, jobs...).Run(ctx)

	logger.Info("sales analytics engine stopped")

	return nil
}

// buildStore constructs the sales store on the configured driver and
// returns a closer for the underlying connection pool.
func buildStore(ctx context.Context, cfg config.Config, logger salesstore.Logger) (*salesstore.Store, func(), error) {
	switch cfg.DBAdapter {
	case config.AdapterSQL:
		db, err := config.NewSQLDB(cfg)
		if err != nil {
			return nil, nil, err
		}

		store, err := salesstore.NewStoreFromSQLDB(db, salesstore.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}

		return store, func() { _ = db.Close() }, nil

	case config.AdapterSQLX:
		db, err := config.NewSQLXDB(cfg)
		if err != nil {
			return nil, nil, err
		}

		store, err := salesstore.NewStoreFromSQLX(db, salesstore.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}

		return store, func() { _ = db.Close() }, nil

	default:
		pool, err := config.NewPGXPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}

		store, err := salesstore.NewStoreFromPGXPool(pool, salesstore.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}

		return store, pool.Close, nil
	}
}

// buildStatsCache connects to Redis when configured, falling back to a
// no-op cache so the engine keeps running without one.
func buildStatsCache(ctx context.Context, cfg config.Config, logger *sugaredLogger) analytics.StatsCache {
	if cfg.RedisAddr == "" {
		return analytics.NewNoopStatsCache()
	}

	redisCache := analytics.NewRedisStatsCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisCache.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, stats snapshots will not be published", "error", err.Error())
		_ = redisCache.Close()
		return analytics.NewNoopStatsCache()
	}

	logger.Info("stats cache connected", "addr", cfg.RedisAddr)

	return redisCache
}

func buildJobs(
	cfg config.Config,
	generator *simulation.Generator,
	catalog *simulation.Catalog,
	store *salesstore.Store,
	aggregator *analytics.Aggregator,
	realtime *analytics.Realtime,
	logger *sugaredLogger,
) []scheduler.Job {
	var jobs []scheduler.Job

	if cfg.EnableSimulation {
		jobs = append(jobs,
			scheduler.Job{
				Name:       "generate-sales",
				Interval:   cfg.SimulationInterval,
				RunAtStart: true,
				Run: func(ctx context.Context) error {
					generator.GenerateBatch(ctx)

					stats, err := realtime.GetCurrentStats(ctx)
					if err != nil {
						logger.Warn("reading today's totals failed", "error", err.Error())
						return nil
					}

					logger.Info("today so far",
						"sales", stats.Today.TotalSales,
						"revenue", stats.Today.TotalRevenue)
					return nil
				},
			},
			scheduler.Job{
				Name:     "replenish-stock",
				Interval: cfg.ReplenishInterval,
				Run: func(ctx context.Context) error {
					replenished, err := store.ReplenishStock(ctx, cfg.ReplenishAmount)
					if err != nil {
						return err
					}
					if replenished > 0 {
						logger.Info("stock replenished", "products", replenished, "amount", cfg.ReplenishAmount)
					}
					return nil
				},
			},
		)
	}

	jobs = append(jobs,
		scheduler.Job{
			Name:       "aggregate-stats",
			Interval:   cfg.AggregateInterval,
			RunAtStart: true,
			Run: func(ctx context.Context) error {
				if err := aggregator.Run(ctx); err != nil {
					return err
				}
				return realtime.Publish(ctx)
			},
		},
		scheduler.Job{
			Name:     "reload-catalog",
			Interval: cfg.ReloadInterval,
			Run:      catalog.Reload,
		},
	)

	return jobs
}

func patternConfigFrom(cfg config.Config) simulation.PatternConfig {
	return simulation.PatternConfig{
		SalesPerIntervalMin: cfg.SalesPerMinuteMin,
		SalesPerIntervalMax: cfg.SalesPerMinuteMax,
		PeakMultipliers: map[simulation.TimeOfDay]float64{
			simulation.Morning:   cfg.MorningMultiplier,
			simulation.Afternoon: cfg.AfternoonMultiplier,
			simulation.Evening:   cfg.EveningMultiplier,
			simulation.Night:     cfg.NightMultiplier,
		},
		WeekendMultiplier:  cfg.WeekendMultiplier,
		WeekendDays:        cfg.WeekendDays,
		CustomerAttachRate: cfg.CustomerAttachRate,
	}
}

// sugaredLogger adapts zap's sugared logger to the Logger interfaces the
// engine packages declare.
type sugaredLogger struct {
	sugar *zap.SugaredLogger
}

func (l *sugaredLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *sugaredLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *sugaredLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *sugaredLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
