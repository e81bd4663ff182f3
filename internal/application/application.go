// Package application wires configuration into a running import service:
// the pgx pool, the store, the duplicate index and core.Service. Both the
// HTTP server and the CLI start from New.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/accessimport/internal/config"
	"github.com/JonMunkholm/accessimport/internal/core"
	"github.com/JonMunkholm/accessimport/internal/dedupe"
	"github.com/JonMunkholm/accessimport/internal/store"
)

// Application holds the long-lived resources of one process.
type Application struct {
	Config  *config.Config
	Pool    *pgxpool.Pool
	Redis   *redis.Client // nil unless the Redis duplicate index is used
	Service *core.Service
}

// New connects to PostgreSQL (and Redis when configured) and builds the
// service. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	pool, err := ConnectPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	dups, rdb, err := duplicateIndex(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	opts := []core.Option{
		core.WithPostImportHook(store.NewPostImport(pool)),
		core.WithActivitySink(store.NewActivityLog(pool)),
	}
	if dups != nil {
		opts = append(opts, core.WithDuplicateIndex(dups))
	}

	return &Application{
		Config:  cfg,
		Pool:    pool,
		Redis:   rdb,
		Service: core.NewService(store.New(pool), ServiceConfig(cfg), opts...),
	}, nil
}

// Close releases the pool and the Redis client.
func (a *Application) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	a.Pool.Close()
}

// ServiceConfig maps the import settings onto core.ServiceConfig.
func ServiceConfig(cfg *config.Config) core.ServiceConfig {
	return core.ServiceConfig{
		Pipeline: core.PipelineConfig{
			BatchSize:      cfg.Import.BatchSize,
			ValidateData:   cfg.Import.ValidateData,
			MaxErrors:      cfg.Import.MaxErrors,
			SkipDuplicates: cfg.Import.SkipDuplicates,
			MaxWarnings:    cfg.Import.MaxWarnings,
		},
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWaitTime:   cfg.Import.MaxWaitTime,
		Timeout:       cfg.Import.Timeout,
	}
}

// ConnectPool opens and pings a pgx pool.
func ConnectPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("connected to database", "name", databaseName(cfg.URL))
	return pool, nil
}

// duplicateIndex returns nil when duplicate skipping is off, a Redis index
// when REDIS_URL is set, and a process-local index otherwise.
func duplicateIndex(ctx context.Context, cfg *config.Config) (core.DuplicateIndex, *redis.Client, error) {
	if !cfg.Import.SkipDuplicates {
		return nil, nil, nil
	}
	if cfg.Redis.URL == "" {
		slog.Info("duplicate index: memory")
		return dedupe.NewMemoryIndex(), nil, nil
	}

	rdb, err := dedupe.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("duplicate index: redis", "prefix", cfg.Redis.KeyPrefix, "ttl", cfg.Redis.DuplicateTTL)
	return dedupe.NewRedisIndex(rdb, cfg.Redis.KeyPrefix, cfg.Redis.DuplicateTTL), rdb, nil
}

func databaseName(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
