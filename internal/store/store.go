package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/prediction-data/internal/config"
)

// Store holds the snapshot database connection.
type Store struct {
	db     *pgxpool.Pool
	logger *slog.Logger

	// writeMu serializes batch commits: one tick's append completes
	// before the next begins.
	writeMu sync.Mutex
}

// Connect creates the connection pool and verifies it.
func Connect(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: pool, logger: logger}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Ping verifies the connection is healthy.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS market_snapshots (
	id        BIGSERIAL PRIMARY KEY,
	source    TEXT             NOT NULL,
	market_id TEXT             NOT NULL,
	title     TEXT             NOT NULL,
	outcome   TEXT             NOT NULL,
	price     DOUBLE PRECISION NOT NULL,
	volume    DOUBLE PRECISION NOT NULL,
	timestamp TIMESTAMPTZ      NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_source_market_time
	ON market_snapshots (source, market_id, timestamp);

CREATE INDEX IF NOT EXISTS idx_snapshots_time
	ON market_snapshots (timestamp);
`

// EnsureSchema creates the snapshot table and indexes if absent.
// Idempotent; full migration tooling lives outside this repo.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
