package tabular

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/roach88/provtrack/internal/intercept"
)

// Table is a CSV file held in memory: a header row and data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// LoadTable reads a CSV file. The first record becomes the header.
func LoadTable(path string) (*Table, error) {
	v, err := CSV.Call("Table.Load", path)
	t, _ := v.(*Table)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Save writes the table to path as CSV.
func (t *Table) Save(path string) error {
	_, err := CSV.Call("Table.Save", path, t)
	return err
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]string, error) {
	idx := -1
	for i, h := range t.Header {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("no column %q", name)
	}
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		} else {
			out = append(out, "")
		}
	}
	return out, nil
}

func newCSVModule() *intercept.Object {
	table := intercept.NewObject("Table")
	table.SetFunc("Load", func(args ...any) (any, error) {
		return loadTable(args[0].(string))
	})
	table.SetFunc("Save", func(args ...any) (any, error) {
		return nil, saveTable(args[0].(string), args[1].(*Table))
	})

	mod := intercept.NewObject(CSVModuleName)
	mod.Set("Table", table)
	return mod
}

func loadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	t := &Table{}
	if len(records) > 0 {
		t.Header = records[0]
		t.Rows = records[1:]
	}
	return t, nil
}

func saveTable(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if len(t.Header) > 0 {
		if err := w.Write(t.Header); err != nil {
			f.Close()
			return fmt.Errorf("write csv %s: %w", path, err)
		}
	}
	if err := w.WriteAll(t.Rows); err != nil {
		f.Close()
		return fmt.Errorf("write csv %s: %w", path, err)
	}
	return f.Close()
}
