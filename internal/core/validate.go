package core

import "fmt"

// Warning thresholds for MatchStatistics. They mirror the original tool's
// review dialog: keys under 70% unique or under 30% matched are suspicious.
const (
	LowUniquenessThreshold = 0.7
	LowMatchThreshold      = 0.3
)

// MatchStatistics describes how well two key columns line up.
// It is computed fresh for each validation request.
type MatchStatistics struct {
	KeyA string `json:"key_a" yaml:"key_a"`
	KeyB string `json:"key_b" yaml:"key_b"`

	DistinctA int `json:"distinct_a" yaml:"distinct_a"`
	DistinctB int `json:"distinct_b" yaml:"distinct_b"`
	Matched   int `json:"matched" yaml:"matched"` // Distinct keys present in both
	OnlyA     int `json:"only_a" yaml:"only_a"`
	OnlyB     int `json:"only_b" yaml:"only_b"`

	// OverlapRatio is |A ∩ B| / |A ∪ B| (Jaccard), 0 when both are empty.
	OverlapRatio float64 `json:"overlap_ratio" yaml:"overlap_ratio"`

	NonNullA       int     `json:"non_null_a" yaml:"non_null_a"`
	NonNullB       int     `json:"non_null_b" yaml:"non_null_b"`
	UniquenessA    float64 `json:"uniqueness_a" yaml:"uniqueness_a"`
	UniquenessB    float64 `json:"uniqueness_b" yaml:"uniqueness_b"`
	MatchRatioA    float64 `json:"match_ratio_a" yaml:"match_ratio_a"` // Matched / DistinctA
	MatchRatioB    float64 `json:"match_ratio_b" yaml:"match_ratio_b"` // Matched / DistinctB
	DuplicateKeysA int     `json:"duplicate_keys_a" yaml:"duplicate_keys_a"`
	DuplicateKeysB int     `json:"duplicate_keys_b" yaml:"duplicate_keys_b"`
	RowsMatchedA   int     `json:"rows_matched_a" yaml:"rows_matched_a"` // Rows of A whose key is in B
	RowsMatchedB   int     `json:"rows_matched_b" yaml:"rows_matched_b"` // Rows of B whose key is in A

	Warnings []string `json:"warnings" yaml:"warnings"`
}

// Validate computes match statistics for a proposed key pair.
//
// It is a pure function of its inputs and may be called repeatedly. A table
// with no columns yields zero statistics rather than an error; a named key
// that the table does not define is a ConfigurationError.
func Validate(a, b *Table, keyA, keyB string) (MatchStatistics, error) {
	stats := MatchStatistics{KeyA: keyA, KeyB: keyB, Warnings: []string{}}
	if a == nil || b == nil || len(a.Columns) == 0 || len(b.Columns) == 0 {
		return stats, nil
	}

	pa, err := Profile(a, keyA)
	if err != nil {
		return stats, relabel(err, "key_a")
	}
	pb, err := Profile(b, keyB)
	if err != nil {
		return stats, relabel(err, "key_b")
	}

	matched := pa.Values.IntersectionSize(pb.Values)
	union := pa.DistinctCount + pb.DistinctCount - matched

	stats.DistinctA = pa.DistinctCount
	stats.DistinctB = pb.DistinctCount
	stats.Matched = matched
	stats.OnlyA = pa.DistinctCount - matched
	stats.OnlyB = pb.DistinctCount - matched
	if union > 0 {
		stats.OverlapRatio = float64(matched) / float64(union)
	}

	stats.NonNullA = pa.NonNullCount
	stats.NonNullB = pb.NonNullCount
	stats.UniquenessA = pa.Uniqueness()
	stats.UniquenessB = pb.Uniqueness()
	stats.MatchRatioA = ratio(matched, pa.DistinctCount)
	stats.MatchRatioB = ratio(matched, pb.DistinctCount)
	stats.DuplicateKeysA = pa.DuplicateKeys()
	stats.DuplicateKeysB = pb.DuplicateKeys()
	stats.RowsMatchedA = rowsInSet(a, keyA, pb.Values)
	stats.RowsMatchedB = rowsInSet(b, keyB, pa.Values)

	stats.Warnings = matchWarnings(stats)
	return stats, nil
}

func matchWarnings(s MatchStatistics) []string {
	warnings := []string{}

	switch {
	case s.NonNullA > 0 && s.NonNullB > 0 &&
		s.UniquenessA < LowUniquenessThreshold && s.UniquenessB < LowUniquenessThreshold:
		warnings = append(warnings, "both columns have low uniqueness - may not be good merge keys")
	case s.MatchRatioA < LowMatchThreshold && s.MatchRatioB < LowMatchThreshold:
		warnings = append(warnings, "low overlap between files - check if columns are compatible")
	}

	if s.DuplicateKeysB > 0 && s.Matched > 0 {
		warnings = append(warnings, fmt.Sprintf("%d duplicate key(s) in second file - matching rows will fan out", s.DuplicateKeysB))
	}
	if s.DuplicateKeysA > 0 && s.Matched > 0 {
		warnings = append(warnings, fmt.Sprintf("%d duplicate key(s) in first file - matching rows will fan out", s.DuplicateKeysA))
	}

	return warnings
}

func rowsInSet(t *Table, column string, set ValueSet) int {
	n := 0
	for _, row := range t.Rows {
		if set.Contains(Normalize(row.Get(column))) {
			n++
		}
	}
	return n
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// relabel sets the Field of a ConfigurationError to the caller's setting name.
func relabel(err error, field string) error {
	if ce, ok := err.(*ConfigurationError); ok {
		cp := *ce
		cp.Field = field
		return &cp
	}
	return err
}
