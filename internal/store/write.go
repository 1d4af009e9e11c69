package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/provtrack/internal/ir"
)

// Insert appends a run record to the store.
//
// The record is serialized to canonical JSON. Records are never updated, so
// a second insert with the same unique_id fails with ErrDuplicateID instead
// of overwriting the first.
func (s *Store) Insert(ctx context.Context, rec ir.RunRecord) error {
	if rec.UniqueID == "" {
		return fmt.Errorf("insert run: %s is required", ir.FieldUniqueID)
	}

	doc, err := marshalRecord(rec)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rec.UniqueID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (unique_id, script, date_ns, document)
		VALUES (?, ?, ?, ?)
	`,
		rec.UniqueID,
		rec.Script,
		dateKey(rec.Date),
		doc,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert run %s: %w", rec.UniqueID, ErrDuplicateID)
		}
		return fmt.Errorf("insert run %s: %w", rec.UniqueID, err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
