package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"place-search/internal/gazetteer"
	"place-search/internal/logger"

	"github.com/lib/pq"
)

// ErrNoGazetteer is returned by LoadGazetteer when nothing has been imported.
var ErrNoGazetteer = errors.New("gazetteer tables are empty")

// ReplaceGazetteer: replaces the persisted schema and rows with t in one transaction
// Rows are streamed with COPY. Record.Row becomes row_idx, so a later LoadGazetteer keeps row identity.
func (s *Store) ReplaceGazetteer(ctx context.Context, t *gazetteer.Table) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, "TRUNCATE _gazetteer_places, _gazetteer_columns"); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	for i, c := range t.Columns() {
		if _, err = tx.ExecContext(ctx, "INSERT INTO _gazetteer_columns(pos, name) VALUES($1, $2)", i, c); err != nil {
			return fmt.Errorf("column %s: %w", c, err)
		}
	}
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("_gazetteer_places", "row_idx", "municipality", "fields"))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}
	for _, r := range t.Records() {
		b, jerr := json.Marshal(r.Fields)
		if jerr != nil {
			_ = stmt.Close()
			return jerr
		}
		var muni sql.NullString
		if r.Municipality != "" {
			muni = sql.NullString{String: r.Municipality, Valid: true}
		}
		if _, err = stmt.ExecContext(ctx, r.Row, muni, string(b)); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("copy row %d: %w", r.Row, err)
		}
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err = stmt.Close(); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	logger.L().Info("gazetteer_replaced", "rows", t.Len(), "columns", len(t.Columns()))
	return nil
}

// LoadGazetteer: rebuilds the table written by ReplaceGazetteer, ordered by row_idx
func (s *Store) LoadGazetteer(ctx context.Context, roles gazetteer.Roles) (*gazetteer.Table, error) {
	crow, err := s.db.QueryContext(ctx, "SELECT name FROM _gazetteer_columns ORDER BY pos")
	if err != nil {
		return nil, err
	}
	var columns []string
	for crow.Next() {
		var c string
		if err := crow.Scan(&c); err != nil {
			crow.Close()
			return nil, err
		}
		columns = append(columns, c)
	}
	crow.Close()
	if err := crow.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, ErrNoGazetteer
	}

	rows, err := s.db.QueryContext(ctx, "SELECT row_idx, fields FROM _gazetteer_places ORDER BY row_idx")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []gazetteer.Record
	for rows.Next() {
		var (
			row int
			raw []byte
		)
		if err := rows.Scan(&row, &raw); err != nil {
			return nil, err
		}
		fields := map[string]string{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		records = append(records, gazetteer.NewRecord(row, fields, roles))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("gazetteer_loaded_pg", "rows", len(records))
	return gazetteer.NewTable(columns, roles, records), nil
}
