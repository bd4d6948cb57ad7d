package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/medical-portal/internal/config"
)

// Open connects the backend selected by cfg.Storage.Driver and runs migrations when needed.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (KVStore, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return NewPostgresKV(pg), nil
	case config.StorageRedis:
		return NewRedisKV(NewRedis(cfg.Redis, logger), cfg.Redis.KeyPrefix), nil
	case config.StorageMemory, "":
		logger.Warn("using in-memory storage; data is lost on restart")
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
