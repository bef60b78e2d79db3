// Package migrate: idempotent schema bootstrap for the Postgres tables
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"place-search/internal/logger"
)

// statements run in order; every one must be safe to repeat
var statements = []string{
	`CREATE TABLE IF NOT EXISTS _search_stats_total (
		id INT PRIMARY KEY,
		total_searches BIGINT NOT NULL DEFAULT 0,
		empty_searches BIGINT NOT NULL DEFAULT 0
	)`,
	`INSERT INTO _search_stats_total(id, total_searches, empty_searches)
	 VALUES(1, 0, 0)
	 ON CONFLICT (id) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS _search_stats_daily (
		day DATE PRIMARY KEY,
		searches BIGINT NOT NULL DEFAULT 0,
		empty_searches BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS _search_recent_queries (
		query TEXT PRIMARY KEY,
		last_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
		searches BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recent_queries_last_seen ON _search_recent_queries(last_seen)`,
	`CREATE TABLE IF NOT EXISTS _gazetteer_columns (
		pos INT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS _gazetteer_places (
		row_idx INT PRIMARY KEY,
		municipality TEXT,
		fields JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_gazetteer_municipality ON _gazetteer_places(municipality)`,
}

// EnsureSchema: creates the stats and gazetteer tables when missing
// Constraint: CREATE ... IF NOT EXISTS only; existing tables are never altered.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range statements {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
