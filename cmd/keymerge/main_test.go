package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/keymerge/internal/core"
)

const (
	customersCSV = "customer_id,name\n1,Alice\n2,Bob\n3,Carol\n"
	ordersCSV    = "customer_id,total\n1,10.5\n2,20\n4,5\n"
)

// writeFixtures writes the customer and order files into a temp dir.
func writeFixtures(t *testing.T) (dir, customers, orders string) {
	t.Helper()
	dir = t.TempDir()
	customers = filepath.Join(dir, "customers.csv")
	orders = filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(customers, []byte(customersCSV), 0o644))
	require.NoError(t, os.WriteFile(orders, []byte(ordersCSV), 0o644))
	return dir, customers, orders
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp(&stdout, &stderr)
	err := app.Run(append([]string{"keymerge", "--no-progress"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestNormalize(t *testing.T) {
	out, _, err := run(t, "--output", "json", "normalize", "1", "1.0", "001", "", "  ABC   def ", "TRUE")
	require.NoError(t, err)

	var rows []normalizedValue
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 6)

	assert.Equal(t, "int", rows[0].Kind)
	assert.Equal(t, "1", *rows[0].Normalized)
	assert.Equal(t, "float", rows[1].Kind)
	assert.Equal(t, "1", *rows[1].Normalized)
	assert.Equal(t, "001", *rows[2].Normalized)
	assert.Nil(t, rows[3].Normalized)
	assert.Equal(t, "abc def", *rows[4].Normalized)
	assert.Equal(t, "true", *rows[5].Normalized)
}

func TestNormalize_Text(t *testing.T) {
	out, _, err := run(t, "normalize", "", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "INPUT")
	assert.Contains(t, out, "<null>")
	assert.Contains(t, out, "42")
}

func TestDetect(t *testing.T) {
	_, customers, orders := writeFixtures(t)

	out, _, err := run(t, "-o", "json", "detect", customers, orders)
	require.NoError(t, err)

	var report detectReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "customers.csv", report.FileA)
	require.NotEmpty(t, report.Candidates)
	assert.Equal(t, "customer_id", report.Candidates[0].ColumnA)
	assert.Equal(t, "customer_id", report.Candidates[0].ColumnB)
	assert.InDelta(t, 2.0/3, report.Candidates[0].Overlap, 1e-9)
	assert.Empty(t, report.Rejected)
}

func TestDetect_Text(t *testing.T) {
	_, customers, orders := writeFixtures(t)

	out, _, err := run(t, "detect", "--top", "1", customers, orders)
	require.NoError(t, err)
	assert.Contains(t, out, "Key candidates for customers.csv and orders.csv")
	assert.Contains(t, out, "customer_id")
	assert.Contains(t, out, "CONFIDENCE")
}

func TestValidate_YAML(t *testing.T) {
	_, customers, orders := writeFixtures(t)

	out, _, err := run(t, "-o", "yaml", "validate", "--key", "customer_id", customers, orders)
	require.NoError(t, err)
	assert.Contains(t, out, "matched: 2")
	assert.Contains(t, out, "only_a: 1")
	assert.Contains(t, out, "overlap_ratio: 0.5")
}

func TestValidate_UnknownKey(t *testing.T) {
	_, customers, orders := writeFixtures(t)

	_, _, err := run(t, "validate", "--key-a", "customer_id", "--key-b", "missing", customers, orders)
	require.Error(t, err)
	assert.True(t, core.IsConfigurationError(err))
	assert.Equal(t, "CFG004", core.MapError(err).Code)
}

func TestMerge_CSV(t *testing.T) {
	dir, customers, orders := writeFixtures(t)
	dest := filepath.Join(dir, "merged.csv")

	out, _, err := run(t, "merge", "--key", "customer_id", "--join", "outer", "--out", dest, customers, orders)
	require.NoError(t, err)
	assert.Contains(t, out, "Rows out")
	assert.Contains(t, out, "Wrote "+dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "customer_id,name,total", lines[0])
	assert.Contains(t, lines, "4,,5")
}

func TestMerge_JSONReport(t *testing.T) {
	dir, customers, orders := writeFixtures(t)

	out, _, err := run(t, "-o", "json", "merge", "--key", "customer_id", "-j", "left",
		"--out", filepath.Join(dir, "merged"), customers, orders)
	require.NoError(t, err)

	var report mergeReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, filepath.Join(dir, "merged.xlsx"), report.Output)
	assert.Equal(t, 3, report.Merge.Summary.RowsOut)
	assert.Equal(t, 2, report.Merge.Summary.MatchedPairs)
	assert.Equal(t, 1, report.Merge.Summary.UnmatchedRowsA)

	_, err = os.Stat(report.Output)
	assert.NoError(t, err)
}

func TestMerge_BadJoin(t *testing.T) {
	_, customers, orders := writeFixtures(t)

	_, _, err := run(t, "merge", "--key", "customer_id", "--join", "cross", customers, orders)
	require.Error(t, err)
	assert.Equal(t, "CFG002", core.MapError(err).Code)
}

func TestProfile(t *testing.T) {
	_, _, orders := writeFixtures(t)

	out, _, err := run(t, "-o", "json", "profile", orders)
	require.NoError(t, err)

	var report profileReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.Table.Rows)
	require.Len(t, report.Profiles, 2)
	assert.Equal(t, "customer_id", report.Profiles[0].Column)
	assert.Equal(t, core.PatternCustomer, report.Profiles[0].Pattern)
}

func TestUsageErrors(t *testing.T) {
	_, customers, _ := writeFixtures(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "detect one file", args: []string{"detect", customers}},
		{name: "profile no file", args: []string{"profile"}},
		{name: "normalize nothing", args: []string{"normalize"}},
		{name: "bad output format", args: []string{"--output", "xml", "normalize", "1"}},
		{name: "missing file", args: []string{"profile", "does-not-exist.csv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestKeys(t *testing.T) {
	_, customers, orders := writeFixtures(t)

	// --key-b overrides --key for the second file only.
	_, _, err := run(t, "validate", "--key", "customer_id", "--key-b", "total", customers, orders)
	require.NoError(t, err)
}
