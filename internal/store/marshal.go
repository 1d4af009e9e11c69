package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/provtrack/internal/ir"
)

// marshalRecord converts a run record to canonical JSON TEXT for storage.
func marshalRecord(rec ir.RunRecord) (string, error) {
	data, err := ir.MarshalCanonical(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return string(data), nil
}

// unmarshalRecord parses a stored document back into a run record.
// Large integers in opaque fields survive because ir decodes via json.Number.
func unmarshalRecord(data string) (ir.RunRecord, error) {
	var rec ir.RunRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return ir.RunRecord{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

// dateKey is the sortable form of a run date kept beside the document.
func dateKey(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
