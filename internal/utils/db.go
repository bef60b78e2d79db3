// Package utils: connection bootstrap for the optional Postgres and Redis backends and the TLS certificate
package utils

import (
	"context"
	"database/sql"
	"fmt"
	"place-search/internal/config"
	"time"

	_ "github.com/lib/pq"
)

// OpenPostgres opens a pool on dsn with the given limits; it does not dial.
func OpenPostgres(dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// ConnectPostgres: opens the pool described by cfg and pings it
// Constraint: the pool is closed again when the ping fails, so callers only own a live pool.
func ConnectPostgres(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := OpenPostgres(cfg.PostgresDSN(), cfg.PGMaxOpenConns, cfg.PGMaxIdleConns)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres %s:%s/%s: %w", cfg.PGHost, cfg.PGPort, cfg.PGDB, err)
	}
	return db, nil
}
