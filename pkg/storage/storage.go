package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/log"
)

// DB wraps the PostgreSQL connection pool shared by a service process
type DB struct {
	Pool *pgxpool.Pool
}

// Connect builds the pgx pool from configuration. The periodic health
// check keeps idle connections alive across load balancer idle drops.
func Connect(ctx context.Context, cfg config.Database) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.PoolSize + cfg.Overflow)
	poolCfg.MinConns = int32(cfg.PoolSize / 4)
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	logger := log.WithComponent("storage")
	logger.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Name).
		Int("pool_size", cfg.PoolSize).
		Msg("database connected")
	return &DB{Pool: pool}, nil
}

// Ping verifies connectivity
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close releases the pool
func (db *DB) Close() {
	db.Pool.Close()
}
