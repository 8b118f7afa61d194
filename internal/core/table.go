package core

import (
	"fmt"
	"strings"
)

// Row maps column name to cell. A column missing from the map reads as null.
type Row map[string]Value

// Get returns the cell under column, or null when absent.
func (r Row) Get(column string) Value {
	return r[column]
}

// Table is an in-memory tabular dataset. The core only reads tables;
// merge output is always a new Table.
type Table struct {
	Name    string   // Display name, usually the source file name
	Columns []string // Ordered column names, unique within the table
	Rows    []Row
}

// NewTable builds a Table and checks its invariants: column names are
// non-empty and unique, and no row carries a column outside Columns.
func NewTable(name string, columns []string, rows []Row) (*Table, error) {
	seen := make(map[string]bool, len(columns))
	for i, col := range columns {
		if col == "" {
			return nil, fmt.Errorf("table %q: column %d has an empty name", name, i)
		}
		if seen[col] {
			return nil, fmt.Errorf("table %q: duplicate column %q", name, col)
		}
		seen[col] = true
	}

	for i, row := range rows {
		for col := range row {
			if !seen[col] {
				return nil, fmt.Errorf("table %q: row %d has unknown column %q", name, i, col)
			}
		}
	}

	cols := make([]string, len(columns))
	copy(cols, columns)

	return &Table{Name: name, Columns: cols, Rows: rows}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the table defines column.
func (t *Table) HasColumn(column string) bool {
	return t.ColumnIndex(column) >= 0
}

// ColumnIndex returns the position of column, or -1.
func (t *Table) ColumnIndex(column string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Head returns up to n rows from the start of the table.
func (t *Table) Head(n int) []Row {
	if t == nil || n <= 0 {
		return nil
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// Records renders the table as string records (header first), the shape
// expected by CSV and spreadsheet writers.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	header := make([]string, len(t.Columns))
	copy(header, t.Columns)
	records = append(records, header)

	for _, row := range t.Rows {
		rec := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			rec[i] = row.Get(col).String()
		}
		records = append(records, rec)
	}
	return records
}

// Preview summarises a loaded table for review screens.
type Preview struct {
	Name    string           `json:"name" yaml:"name"`
	Rows    int              `json:"rows" yaml:"rows"`
	Columns []string         `json:"columns" yaml:"columns"`
	Sample  []map[string]any `json:"sample" yaml:"sample"`
}

// DefaultPreviewRows is the number of sample rows in a Preview.
const DefaultPreviewRows = 5

// NewPreview returns a Preview with at most maxRows sample rows.
func NewPreview(t *Table, maxRows int) Preview {
	p := Preview{Name: t.Name, Rows: t.Len(), Columns: t.Columns}
	for _, row := range t.Head(maxRows) {
		m := make(map[string]any, len(t.Columns))
		for _, col := range t.Columns {
			m[col] = row.Get(col).Any()
		}
		p.Sample = append(p.Sample, m)
	}
	return p
}

// String describes the table shape for logs.
func (t *Table) String() string {
	if t == nil {
		return "Table<nil>"
	}
	return fmt.Sprintf("Table{%s: %d rows, columns=[%s]}", t.Name, len(t.Rows), strings.Join(t.Columns, ", "))
}
