// Package pg is the pgx-backed persistence layer: one Store struct
// implementing every narrow Store interface the resolver, registry,
// engines, and orchestrator declare (internal/geo, internal/snapshot,
// internal/trace, internal/pricing/engine, internal/pricing/orchestrator).
// Queries are hand-written rather than sqlc-generated; see DESIGN.md.
package pg

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

// Config mirrors the parser tool's pool sizing (internal/config reads
// these from the environment via viper).
type Config struct {
	DSN         string
	MaxConns    int32
	MinConns    int32
}

// Store wraps a pgxpool.Pool and implements every read/write
// interface the pricing core depends on.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// Open parses cfg.DSN, opens a pool, and pings it.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{pool: pool, log: log}, nil
}

// Migrate applies the embedded schema. It is idempotent (every
// statement is CREATE ... IF NOT EXISTS).
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}
