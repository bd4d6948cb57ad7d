package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/medical-portal/internal/config"
)

// Postgres wraps access to a pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres establishes a connection pool when DSN is provided.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("POSTGRES_DSN not provided; skipping database connection")
		return &Postgres{Pool: nil}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres")
	return &Postgres{Pool: pool}, nil
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// PoolHandle returns the underlying pgx pool.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}

// PostgresKV stores documents as JSONB rows of the kv_documents table.
type PostgresKV struct {
	pg *Postgres
}

// NewPostgresKV builds a KVStore over an established pool.
func NewPostgresKV(pg *Postgres) *PostgresKV {
	return &PostgresKV{pg: pg}
}

func (s *PostgresKV) pool() (*pgxpool.Pool, error) {
	pool := s.pg.PoolHandle()
	if pool == nil {
		return nil, ErrStoreUnavailable
	}
	return pool, nil
}

func (s *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	pool, err := s.pool()
	if err != nil {
		return nil, err
	}
	const query = `SELECT value FROM kv_documents WHERE key=$1`
	var value []byte
	if err := pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

func (s *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	pool, err := s.pool()
	if err != nil {
		return err
	}
	return upsertDocument(ctx, pool, key, value)
}

func (s *PostgresKV) Delete(ctx context.Context, keys ...string) error {
	pool, err := s.pool()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	_, err = pool.Exec(ctx, `DELETE FROM kv_documents WHERE key = ANY($1)`, keys)
	return err
}

func (s *PostgresKV) Apply(ctx context.Context, batch Batch) error {
	pool, err := s.pool()
	if err != nil {
		return err
	}
	if batch.Empty() {
		return nil
	}
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if len(batch.Deletes) > 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM kv_documents WHERE key = ANY($1)`, batch.Deletes); err != nil {
				return err
			}
		}
		for key, value := range batch.Sets {
			if err := upsertDocument(ctx, tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresKV) Ping(ctx context.Context) error {
	pool, err := s.pool()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

func (s *PostgresKV) Close() error {
	s.pg.Close()
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsertDocument(ctx context.Context, db execer, key string, value []byte) error {
	const query = `
        INSERT INTO kv_documents (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`
	_, err := db.Exec(ctx, query, key, value)
	return err
}
