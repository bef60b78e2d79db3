// Package store: Postgres access for search statistics and the persisted gazetteer
package store

import (
	"context"
	"database/sql"
	"fmt"
	"place-search/internal/logger"
	"strings"
	"unicode/utf8"
)

// maxQueryLen bounds what RecordRecent keeps of a query, in runes.
const maxQueryLen = 200

// Store wraps a connection pool; nil-safe methods are documented as such.
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// IncrStats: bumps the running and daily search counters, and the empty counters when empty is set
// Both updates are attempted; the first failure is returned.
func (s *Store) IncrStats(ctx context.Context, empty bool) error {
	e := 0
	if empty {
		e = 1
	}
	_, errTotal := s.db.ExecContext(ctx, "UPDATE _search_stats_total SET total_searches=total_searches+1, empty_searches=empty_searches+$1 WHERE id=1", e)
	_, errDaily := s.db.ExecContext(ctx, `INSERT INTO _search_stats_daily(day, searches, empty_searches) VALUES(current_date, 1, $1)
		ON CONFLICT (day) DO UPDATE SET searches=_search_stats_daily.searches+1, empty_searches=_search_stats_daily.empty_searches+EXCLUDED.empty_searches`, e)
	if errTotal != nil {
		return fmt.Errorf("stats total: %w", errTotal)
	}
	if errDaily != nil {
		return fmt.Errorf("stats daily: %w", errDaily)
	}
	logger.L().Debug("stats_incr", "empty", empty)
	return nil
}

// Totals is the response of GetTotals.
type Totals struct {
	Total      int64 `json:"total"`
	Today      int64 `json:"today"`
	Empty      int64 `json:"empty"`
	EmptyToday int64 `json:"empty_today"`
}

// GetTotals reads the running and today's counters; missing rows count as zero.
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, "SELECT total_searches, empty_searches FROM _search_stats_total WHERE id=1").Scan(&t.Total, &t.Empty)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, "SELECT searches, empty_searches FROM _search_stats_daily WHERE day=current_date").Scan(&t.Today, &t.EmptyToday)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	logger.L().Debug("stats_totals", "total", t.Total, "today", t.Today)
	return &t, nil
}

// NormalizeQuery is the key RecordRecent stores: trimmed, lowercased, at most maxQueryLen runes.
func NormalizeQuery(q string) string {
	q = strings.ToLower(strings.Join(strings.Fields(q), " "))
	if utf8.RuneCountInString(q) > maxQueryLen {
		q = string([]rune(q)[:maxQueryLen])
	}
	return q
}

// RecordRecent: upserts the normalized query with its last-seen time and count
// Constraint: empty queries are skipped silently.
func (s *Store) RecordRecent(ctx context.Context, query string) error {
	q := NormalizeQuery(query)
	if q == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO _search_recent_queries(query, last_seen, searches)
		VALUES($1, now(), 1)
		ON CONFLICT (query) DO UPDATE SET last_seen=now(), searches=_search_recent_queries.searches+1`, q)
	return err
}

// QueryCount is one row of TopQueries.
type QueryCount struct {
	Query    string `json:"query"`
	Searches int64  `json:"searches"`
}

// TopQueries: most searched queries seen within the last hours, highest count first
// hours <= 0 means 24; limit <= 0 means 10.
func (s *Store) TopQueries(ctx context.Context, hours, limit int) ([]QueryCount, error) {
	if hours <= 0 {
		hours = 24
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT query, searches
		FROM _search_recent_queries
		WHERE last_seen >= now() - make_interval(hours => $1)
		ORDER BY searches DESC, last_seen DESC
		LIMIT $2`, hours, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []QueryCount{}
	for rows.Next() {
		var qc QueryCount
		if err := rows.Scan(&qc.Query, &qc.Searches); err != nil {
			return nil, err
		}
		out = append(out, qc)
	}
	return out, rows.Err()
}
