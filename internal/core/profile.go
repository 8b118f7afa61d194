package core

import "strings"

// ValueSet is a set of non-null normalized values.
type ValueSet map[NormalizedValue]struct{}

// Len returns the set size.
func (s ValueSet) Len() int { return len(s) }

// Contains reports membership.
func (s ValueSet) Contains(v NormalizedValue) bool {
	_, ok := s[v]
	return ok
}

// IntersectionSize counts values present in both sets.
func (s ValueSet) IntersectionSize(other ValueSet) int {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for v := range small {
		if large.Contains(v) {
			n++
		}
	}
	return n
}

// CardinalityClass describes the distribution shape of a column's values.
type CardinalityClass string

const (
	CardinalityEmpty      CardinalityClass = "empty"
	CardinalityConstant   CardinalityClass = "constant"
	CardinalityUnique     CardinalityClass = "unique"
	CardinalityNearUnique CardinalityClass = "near_unique"
	CardinalityLow        CardinalityClass = "low"
)

// NearUniqueRatio is the distinct/non-null ratio above which a column is
// treated as near unique. Matches the original tool's 70% key heuristic.
const NearUniqueRatio = 0.7

// ColumnProfile holds derived statistics for one column of one table.
// It is recomputed from the table on demand and never persisted.
type ColumnProfile struct {
	Table         string           `json:"table" yaml:"table"`
	Column        string           `json:"column" yaml:"column"`
	Index         int              `json:"index" yaml:"index"`
	TotalRows     int              `json:"total_rows" yaml:"total_rows"`
	NonNullCount  int              `json:"non_null_count" yaml:"non_null_count"`
	NullCount     int              `json:"null_count" yaml:"null_count"`
	DistinctCount int              `json:"distinct_count" yaml:"distinct_count"`
	Cardinality   CardinalityClass `json:"cardinality" yaml:"cardinality"`
	Pattern       ColumnPattern    `json:"pattern" yaml:"pattern"`

	Values ValueSet `json:"-" yaml:"-"`

	// counts tracks occurrences per value, for duplicate detection.
	counts map[NormalizedValue]int
}

// Uniqueness returns distinct/non-null, or 0 for an all-null column.
func (p ColumnProfile) Uniqueness() float64 {
	if p.NonNullCount == 0 {
		return 0
	}
	return float64(p.DistinctCount) / float64(p.NonNullCount)
}

// DuplicateKeys returns the number of distinct values seen more than once.
func (p ColumnProfile) DuplicateKeys() int {
	n := 0
	for _, c := range p.counts {
		if c > 1 {
			n++
		}
	}
	return n
}

// Profile builds the ColumnProfile of column in t.
// Returns a ConfigurationError if the column does not exist.
func Profile(t *Table, column string) (ColumnProfile, error) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		name := ""
		if t != nil {
			name = t.Name
		}
		return ColumnProfile{}, unknownColumnError("column", column, name)
	}
	return profileColumn(t, idx), nil
}

// ProfileAll profiles every column of t in column order.
func ProfileAll(t *Table) []ColumnProfile {
	if t == nil {
		return nil
	}
	profiles := make([]ColumnProfile, len(t.Columns))
	for i := range t.Columns {
		profiles[i] = profileColumn(t, i)
	}
	return profiles
}

func profileColumn(t *Table, idx int) ColumnProfile {
	column := t.Columns[idx]
	p := ColumnProfile{
		Table:     t.Name,
		Column:    column,
		Index:     idx,
		TotalRows: len(t.Rows),
		Pattern:   DetectColumnPattern(column),
		Values:    make(ValueSet),
		counts:    make(map[NormalizedValue]int),
	}

	for _, row := range t.Rows {
		nv := Normalize(row.Get(column))
		if nv.IsNull() {
			p.NullCount++
			continue
		}
		p.NonNullCount++
		p.Values[nv] = struct{}{}
		p.counts[nv]++
	}

	p.DistinctCount = len(p.Values)
	p.Cardinality = classifyCardinality(p.DistinctCount, p.NonNullCount)
	return p
}

func classifyCardinality(distinct, nonNull int) CardinalityClass {
	switch {
	case distinct == 0:
		return CardinalityEmpty
	case distinct == 1 && nonNull > 1:
		return CardinalityConstant
	case distinct == nonNull:
		return CardinalityUnique
	case float64(distinct)/float64(nonNull) >= NearUniqueRatio:
		return CardinalityNearUnique
	default:
		return CardinalityLow
	}
}

// ColumnPattern is a business hint derived from a column name.
type ColumnPattern string

const (
	PatternTracking ColumnPattern = "tracking"
	PatternOrder    ColumnPattern = "order"
	PatternCustomer ColumnPattern = "customer"
	PatternStatus   ColumnPattern = "status"
	PatternUnknown  ColumnPattern = "unknown"
)

// columnPatterns is checked in order; the first keyword hit wins.
// Keyword lists cover the English and Italian exports the tool grew up on.
var columnPatterns = []struct {
	pattern  ColumnPattern
	keywords []string
}{
	{PatternTracking, []string{"tracking", "track", "awb", "courier", "shipment", "spedizione"}},
	{PatternOrder, []string{"order", "ordine", "numero", "reference", "rif", "comando"}},
	{PatternCustomer, []string{"customer", "cliente", "client", "conto", "account"}},
	{PatternStatus, []string{"status", "stato", "state", "delivery", "consegna"}},
}

// DetectColumnPattern classifies a column name by keyword.
func DetectColumnPattern(column string) ColumnPattern {
	name := strings.ToLower(strings.TrimSpace(column))
	for _, cp := range columnPatterns {
		for _, kw := range cp.keywords {
			if strings.Contains(name, kw) {
				return cp.pattern
			}
		}
	}
	return PatternUnknown
}
