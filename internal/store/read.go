package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/provtrack/internal/ir"
)

// Predicate selects records during a Search.
type Predicate func(ir.RunRecord) bool

// Search returns every record for which pred is true, in insertion order.
// A nil predicate matches everything. There is no index: each call decodes
// every stored document.
func (s *Store) Search(ctx context.Context, pred Predicate) ([]ir.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, document
		FROM runs
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	records := []ir.RunRecord{}
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if pred == nil || pred(rec) {
			records = append(records, rec)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return records, nil
}

// All returns every stored record in insertion order.
func (s *Store) All(ctx context.Context) ([]ir.RunRecord, error) {
	return s.Search(ctx, nil)
}

// Get retrieves a single record by its exact unique_id.
// Returns ErrNotFound if no such record exists.
func (s *Store) Get(ctx context.Context, id string) (ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, document
		FROM runs
		WHERE unique_id = ?
	`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.RunRecord{}, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	return rec, err
}

// Latest returns the most recent run by date, the last inserted on ties.
// Returns ErrNotFound when the store is empty.
func (s *Store) Latest(ctx context.Context) (ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, document
		FROM runs
		ORDER BY date_ns DESC, seq DESC
		LIMIT 1
	`)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.RunRecord{}, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	return rec, err
}

// LatestForScript returns the most recent run of the given script.
// Returns ErrNotFound when the script has never been recorded.
func (s *Store) LatestForScript(ctx context.Context, script string) (ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, document
		FROM runs
		WHERE script = ?
		ORDER BY date_ns DESC, seq DESC
		LIMIT 1
	`, script)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.RunRecord{}, fmt.Errorf("latest run of %s: %w", script, ErrNotFound)
	}
	return rec, err
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord decodes one (seq, document) row.
func scanRecord(row scanner) (ir.RunRecord, error) {
	var (
		seq int64
		doc string
	)
	if err := row.Scan(&seq, &doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.RunRecord{}, err
		}
		return ir.RunRecord{}, fmt.Errorf("scan run: %w", err)
	}

	rec, err := unmarshalRecord(doc)
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("run seq %d: %w", seq, err)
	}
	rec.Seq = seq
	return rec, nil
}
