package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/provtrack/internal/ir"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testRecord creates a run record dated at the given unix second.
func testRecord(id string, date int64) ir.RunRecord {
	return ir.RunRecord{
		UniqueID: id,
		Script:   "/home/u/analysis.go",
		Command:  "/usr/local/bin/analysis",
		Date:     time.Unix(date, 0).UTC(),
		Outputs:  []ir.Entry{ir.NewHashedEntry(fmt.Sprintf("/data/%s.csv", id), "h-"+id)},
	}
}
