package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// mustTable builds a table from positional rows of plain Go values.
func mustTable(t *testing.T, name string, columns []string, rows ...[]any) *Table {
	t.Helper()

	built := make([]Row, 0, len(rows))
	for _, cells := range rows {
		require.Len(t, cells, len(columns), "row width")
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = FromAny(cells[i])
		}
		built = append(built, row)
	}

	tbl, err := NewTable(name, columns, built)
	require.NoError(t, err)
	return tbl
}

// column returns the display strings of one column of t.
func column(t *Table, name string) []string {
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, row.Get(name).String())
	}
	return out
}
