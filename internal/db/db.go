// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-standings/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Schema creates the snapshot table when it does not exist yet.
const Schema = `
CREATE TABLE IF NOT EXISTS ` + config.SnapshotsTable + ` (
	snapshot_date DATE        NOT NULL,
	league        TEXT        NOT NULL,
	team_raw      TEXT        NOT NULL,
	team          TEXT        NOT NULL,
	source_url    TEXT        NOT NULL,
	position      INT         NOT NULL,
	metrics       JSONB       NOT NULL DEFAULT '{}'::jsonb,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (snapshot_date, league, team_raw)
)`

// Statements lists every prepared statement by name.
var Statements = map[string]string{
	"health_check": "SELECT 1",

	"upsert_snapshot_team": `
		INSERT INTO ` + config.SnapshotsTable + ` (
			snapshot_date, league, team_raw, team, source_url, position, metrics
		) VALUES ($1::date, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (snapshot_date, league, team_raw) DO UPDATE SET
			team = EXCLUDED.team,
			source_url = EXCLUDED.source_url,
			position = EXCLUDED.position,
			metrics = EXCLUDED.metrics,
			updated_at = NOW()`,

	"delete_snapshot_extra": `
		DELETE FROM ` + config.SnapshotsTable + `
		WHERE snapshot_date = $1::date AND league = $2 AND NOT (team_raw = ANY($3))`,
}

// registerPreparedStatements applies Schema, then registers all statements
// the mirror uses. Preparing fails against a missing table.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	if _, err := conn.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	for name, sql := range Statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
