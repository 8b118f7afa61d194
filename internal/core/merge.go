package core

// merge.go executes a confirmed merge.
//
// Rows are aligned on the normalized key, so 64356145 in one file matches
// "64356145.0" in the other. Rows whose key is null never match anything;
// they still appear in the output for join types that keep unmatched rows.
//
// Output columns are A's columns in order followed by B's. When both keys
// share a name they are coalesced into one column. Any other name present in
// both tables is kept twice: A's copy gets LeftSuffix (none by default), B's
// copy gets RightSuffix, and _2, _3 ... is appended if the suffixed name is
// already taken by any column in the output.
// Every rename is listed in MergeResult.Renames.

import (
	"fmt"
	"strings"
)

// JoinType selects which unmatched rows are kept.
type JoinType string

const (
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
	JoinInner JoinType = "inner"
	JoinOuter JoinType = "outer"
)

// JoinTypes lists the supported join types in display order.
var JoinTypes = []JoinType{JoinLeft, JoinRight, JoinInner, JoinOuter}

// Valid reports whether j is a supported join type.
func (j JoinType) Valid() bool {
	switch j {
	case JoinLeft, JoinRight, JoinInner, JoinOuter:
		return true
	}
	return false
}

// ParseJoinType accepts a join name in any case.
func ParseJoinType(s string) (JoinType, error) {
	j := JoinType(strings.ToLower(strings.TrimSpace(s)))
	if !j.Valid() {
		return "", &ConfigurationError{
			Field:  "join",
			Reason: fmt.Sprintf("unsupported join type %q", s),
			Err:    ErrUnsupportedJoin,
		}
	}
	return j, nil
}

// Default column suffixes for names present in both tables.
const (
	DefaultLeftSuffix  = ""
	DefaultRightSuffix = "_right"
)

// MergeConfig is the caller-confirmed merge request.
type MergeConfig struct {
	Join JoinType `json:"join" yaml:"join"`
	KeyA string   `json:"key_a" yaml:"key_a"`
	KeyB string   `json:"key_b" yaml:"key_b"`

	// Suffixes for non-key columns present in both tables.
	LeftSuffix  string `json:"left_suffix" yaml:"left_suffix"`
	RightSuffix string `json:"right_suffix" yaml:"right_suffix"`
}

// NewMergeConfig returns a config with the default suffixes.
func NewMergeConfig(join JoinType, keyA, keyB string) MergeConfig {
	return MergeConfig{
		Join:        join,
		KeyA:        keyA,
		KeyB:        keyB,
		LeftSuffix:  DefaultLeftSuffix,
		RightSuffix: DefaultRightSuffix,
	}
}

// Validate checks cfg against the two tables without merging.
func (cfg MergeConfig) Validate(a, b *Table) error {
	if a == nil || len(a.Columns) == 0 {
		return &ConfigurationError{Field: "table_a", Reason: ErrEmptyInput.Error(), Err: ErrEmptyInput}
	}
	if b == nil || len(b.Columns) == 0 {
		return &ConfigurationError{Field: "table_b", Reason: ErrEmptyInput.Error(), Err: ErrEmptyInput}
	}
	if !cfg.Join.Valid() {
		return &ConfigurationError{
			Field:  "join",
			Reason: fmt.Sprintf("unsupported join type %q", string(cfg.Join)),
			Err:    ErrUnsupportedJoin,
		}
	}
	if cfg.KeyA == "" {
		return &ConfigurationError{Field: "key_a", Reason: "key column is required", Err: ErrUnknownColumn}
	}
	if cfg.KeyB == "" {
		return &ConfigurationError{Field: "key_b", Reason: "key column is required", Err: ErrUnknownColumn}
	}
	if !a.HasColumn(cfg.KeyA) {
		return unknownColumnError("key_a", cfg.KeyA, a.Name)
	}
	if !b.HasColumn(cfg.KeyB) {
		return unknownColumnError("key_b", cfg.KeyB, b.Name)
	}
	return nil
}

// ColumnRename records an input column that was renamed in the output.
type ColumnRename struct {
	Side   string `json:"side" yaml:"side"` // "a" or "b"
	Source string `json:"source" yaml:"source"`
	Output string `json:"output" yaml:"output"`
}

// MergeSummary holds the exact row accounting of a merge.
//
// RowsOut always equals MatchedPairs plus the unmatched rows the join type
// keeps, so no row is ever dropped without being counted.
type MergeSummary struct {
	Join JoinType `json:"join" yaml:"join"`
	KeyA string   `json:"key_a" yaml:"key_a"`
	KeyB string   `json:"key_b" yaml:"key_b"`

	RowsInA int `json:"rows_in_a" yaml:"rows_in_a"`
	RowsInB int `json:"rows_in_b" yaml:"rows_in_b"`
	RowsOut int `json:"rows_out" yaml:"rows_out"`

	MatchedPairs   int `json:"matched_pairs" yaml:"matched_pairs"`       // Output rows built from both sides
	MatchedRowsA   int `json:"matched_rows_a" yaml:"matched_rows_a"`     // Rows of A with at least one match
	MatchedRowsB   int `json:"matched_rows_b" yaml:"matched_rows_b"`     // Rows of B with at least one match
	UnmatchedRowsA int `json:"unmatched_rows_a" yaml:"unmatched_rows_a"` // Rows of A with no match
	UnmatchedRowsB int `json:"unmatched_rows_b" yaml:"unmatched_rows_b"` // Rows of B with no match
}

// MergeResult is the output of one merge. The core does not retain it.
type MergeResult struct {
	Table   *Table         `json:"-" yaml:"-"`
	Summary MergeSummary   `json:"summary" yaml:"summary"`
	Renames []ColumnRename `json:"renames" yaml:"renames"`
}

// Merge joins a and b under cfg and returns a new table.
// Inputs are never modified. An invalid cfg returns a ConfigurationError
// and no merge is attempted.
func Merge(a, b *Table, cfg MergeConfig) (*MergeResult, error) {
	if err := cfg.Validate(a, b); err != nil {
		return nil, err
	}

	layout := planColumns(a, b, cfg)
	m := &merger{
		a:        a,
		b:        b,
		cfg:      cfg,
		layout:   layout,
		matchedA: make([]bool, len(a.Rows)),
		matchedB: make([]bool, len(b.Rows)),
	}

	switch cfg.Join {
	case JoinRight:
		m.driveRight()
	default:
		m.driveLeft()
	}

	summary := MergeSummary{
		Join:         cfg.Join,
		KeyA:         cfg.KeyA,
		KeyB:         cfg.KeyB,
		RowsInA:      len(a.Rows),
		RowsInB:      len(b.Rows),
		RowsOut:      len(m.rows),
		MatchedPairs: m.pairs,
		MatchedRowsA: countTrue(m.matchedA),
		MatchedRowsB: countTrue(m.matchedB),
	}
	summary.UnmatchedRowsA = summary.RowsInA - summary.MatchedRowsA
	summary.UnmatchedRowsB = summary.RowsInB - summary.MatchedRowsB

	out := &Table{
		Name:    mergedName(a, b),
		Columns: layout.columns,
		Rows:    m.rows,
	}

	return &MergeResult{Table: out, Summary: summary, Renames: layout.renames}, nil
}

// columnLayout maps input columns to output names.
type columnLayout struct {
	columns   []string
	outA      []string // Output name per column of A
	outB      []string // Output name per column of B; "" when coalesced into A's key
	coalesced bool
	renames   []ColumnRename
}

func planColumns(a, b *Table, cfg MergeConfig) columnLayout {
	l := columnLayout{coalesced: cfg.KeyA == cfg.KeyB}
	used := make(map[string]bool, len(a.Columns)+len(b.Columns))

	inB := make(map[string]bool, len(b.Columns))
	for _, c := range b.Columns {
		if l.coalesced && c == cfg.KeyB {
			continue
		}
		inB[c] = true
	}

	// A's own names are reserved up front so a suffixed rename can never
	// land on a column A already has.
	for _, c := range a.Columns {
		used[c] = true
	}

	l.outA = make([]string, len(a.Columns))
	for i, c := range a.Columns {
		name := c
		if c != cfg.KeyA && inB[c] && cfg.LeftSuffix != "" {
			name = uniqueName(c+cfg.LeftSuffix, used)
		}
		used[name] = true
		l.outA[i] = name
		l.columns = append(l.columns, name)
		if name != c {
			l.renames = append(l.renames, ColumnRename{Side: "a", Source: c, Output: name})
		}
	}

	l.outB = make([]string, len(b.Columns))
	for i, c := range b.Columns {
		if l.coalesced && c == cfg.KeyB {
			continue
		}
		name := c
		if used[c] {
			name = uniqueName(c+cfg.RightSuffix, used)
		}
		used[name] = true
		l.outB[i] = name
		l.columns = append(l.columns, name)
		if name != c {
			l.renames = append(l.renames, ColumnRename{Side: "b", Source: c, Output: name})
		}
	}

	return l
}

// uniqueName returns base, or base_2, base_3, ... whichever is unused first.
func uniqueName(base string, used map[string]bool) string {
	if !used[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if !used[candidate] {
			return candidate
		}
	}
}

type merger struct {
	a, b   *Table
	cfg    MergeConfig
	layout columnLayout

	rows     []Row
	pairs    int
	matchedA []bool
	matchedB []bool
}

// driveLeft walks A in order; used by left, inner and outer joins.
func (m *merger) driveLeft() {
	index := buildKeyIndex(m.b, m.cfg.KeyB)

	for i, rowA := range m.a.Rows {
		matches := index.lookup(rowA.Get(m.cfg.KeyA))
		if len(matches) == 0 {
			if m.cfg.Join != JoinInner {
				m.emit(rowA, nil)
			}
			continue
		}
		m.matchedA[i] = true
		for _, j := range matches {
			m.matchedB[j] = true
			m.emit(rowA, m.b.Rows[j])
			m.pairs++
		}
	}

	if m.cfg.Join == JoinOuter {
		for j, rowB := range m.b.Rows {
			if !m.matchedB[j] {
				m.emit(nil, rowB)
			}
		}
	}
}

// driveRight walks B in order, expanding matches in A's order.
func (m *merger) driveRight() {
	index := buildKeyIndex(m.a, m.cfg.KeyA)

	for j, rowB := range m.b.Rows {
		matches := index.lookup(rowB.Get(m.cfg.KeyB))
		if len(matches) == 0 {
			m.emit(nil, rowB)
			continue
		}
		m.matchedB[j] = true
		for _, i := range matches {
			m.matchedA[i] = true
			m.emit(m.a.Rows[i], rowB)
			m.pairs++
		}
	}
}

// emit appends one output row. A nil side is null-filled.
func (m *merger) emit(rowA, rowB Row) {
	out := make(Row, len(m.layout.columns))
	for _, name := range m.layout.columns {
		out[name] = Null()
	}

	for i, c := range m.a.Columns {
		if rowA != nil {
			out[m.layout.outA[i]] = rowA.Get(c)
		}
	}
	for i, c := range m.b.Columns {
		if rowB == nil {
			continue
		}
		if m.layout.outB[i] == "" {
			// Coalesced key: fill from B only when A has no row.
			if rowA == nil {
				out[m.cfg.KeyA] = rowB.Get(c)
			}
			continue
		}
		out[m.layout.outB[i]] = rowB.Get(c)
	}

	m.rows = append(m.rows, out)
}

// keyIndex maps a normalized key to row positions in table order.
type keyIndex map[NormalizedValue][]int

func buildKeyIndex(t *Table, column string) keyIndex {
	idx := make(keyIndex)
	for i, row := range t.Rows {
		nv := Normalize(row.Get(column))
		if nv.IsNull() {
			continue
		}
		idx[nv] = append(idx[nv], i)
	}
	return idx
}

func (idx keyIndex) lookup(v Value) []int {
	nv := Normalize(v)
	if nv.IsNull() {
		return nil
	}
	return idx[nv]
}

func countTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func mergedName(a, b *Table) string {
	switch {
	case a.Name == "" && b.Name == "":
		return "merged"
	case b.Name == "":
		return a.Name + "_merged"
	case a.Name == "":
		return b.Name + "_merged"
	}
	return a.Name + "+" + b.Name
}
