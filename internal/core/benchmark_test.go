package core

import (
	"fmt"
	"strconv"
	"testing"
)

// ============================================================================
// Cell Benchmarks
// ============================================================================

// BenchmarkParseCell benchmarks cell typing, run once per loaded cell.
func BenchmarkParseCell(b *testing.B) {
	testCases := []string{
		"123",
		"-456.78",
		"001",      // Zero-padded identifier
		"TRUE",     // Boolean
		"  abc  ",  // Text with whitespace
		"1e5",      // Scientific notation stays text
		"",         // Blank
		"ORD-1234", // Mixed identifier
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseCell(tc)
		}
	}
}

// BenchmarkNormalize benchmarks the comparison form of mixed values.
// This is the hot path of profiling and key indexing.
func BenchmarkNormalize(b *testing.B) {
	values := []Value{
		Int(12345),
		Float(12345.0),
		Float(0.1 + 0.2),
		String("  Mixed   Case Text "),
		String("001"),
		Bool(true),
		Null(),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, v := range values {
			Normalize(v)
		}
	}
}

// BenchmarkNormalize_Int benchmarks the most common key type.
func BenchmarkNormalize_Int(b *testing.B) {
	v := Int(64356145)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Normalize(v)
	}
}

// ============================================================================
// Scoring Benchmarks
// ============================================================================

// BenchmarkNameSimilarity benchmarks column-name matching.
func BenchmarkNameSimilarity(b *testing.B) {
	cfg := DefaultScoringConfig()
	pairs := [][2]string{
		{"customer_id", "customer_id"},     // Exact
		{"CustomerID", "customer_id"},      // Token split
		{"cust_id", "customer_id"},         // Abbreviation
		{"order_number", "tracking_code"},  // Unrelated
		{"numero_ordine", "ordine_numero"}, // Reordered
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, p := range pairs {
			NameSimilarity(p[0], p[1], cfg)
		}
	}
}

// BenchmarkScoreCandidates benchmarks full key detection at several sizes.
func BenchmarkScoreCandidates(b *testing.B) {
	for _, rows := range []int{100, 1000, 10000} {
		b.Run(strconv.Itoa(rows), func(b *testing.B) {
			a, t := generateTablePair(b, rows, 8)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ScoreCandidates(a, t)
			}
		})
	}
}

// BenchmarkScoreCandidates_Wide benchmarks the column-pair cross product.
func BenchmarkScoreCandidates_Wide(b *testing.B) {
	a, t := generateTablePair(b, 500, 40)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ScoreCandidates(a, t)
	}
}

// ============================================================================
// Validation and Merge Benchmarks
// ============================================================================

// BenchmarkValidate benchmarks match statistics for one key pair.
func BenchmarkValidate(b *testing.B) {
	a, t := generateTablePair(b, 10000, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Validate(a, t, "id", "id"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMerge benchmarks each join type on 10k-row inputs.
func BenchmarkMerge(b *testing.B) {
	a, t := generateTablePair(b, 10000, 4)
	for _, join := range JoinTypes {
		b.Run(string(join), func(b *testing.B) {
			cfg := NewMergeConfig(join, "id", "id")
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := Merge(a, t, cfg); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkMerge_DuplicateKeys benchmarks a many-to-many join.
func BenchmarkMerge_DuplicateKeys(b *testing.B) {
	a := generateTable(b, "a", 2000, 3, func(r int) Value { return Int(int64(r % 50)) })
	t := generateTable(b, "b", 2000, 3, func(r int) Value { return Int(int64(r % 50)) })
	cfg := NewMergeConfig(JoinInner, "id", "id")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Merge(a, t, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Parallel Benchmarks
// ============================================================================

// BenchmarkNormalizeParallel checks Normalize has no shared state.
func BenchmarkNormalizeParallel(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			Normalize(String("  Mixed   Case Text "))
		}
	})
}

// BenchmarkScoreCandidatesParallel checks a shared Scorer under load.
func BenchmarkScoreCandidatesParallel(b *testing.B) {
	a, t := generateTablePair(b, 1000, 8)
	scorer := NewScorer(DefaultScoringConfig())

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			scorer.Assess(a, t)
		}
	})
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateTablePair builds two tables with an "id" key whose values
// half overlap, plus cols-1 filler columns each.
func generateTablePair(tb testing.TB, rows, cols int) (*Table, *Table) {
	tb.Helper()
	a := generateTable(tb, "a", rows, cols, func(r int) Value { return Int(int64(r)) })
	b := generateTable(tb, "b", rows, cols, func(r int) Value { return Int(int64(r + rows/2)) })
	return a, b
}

func generateTable(tb testing.TB, name string, rows, cols int, key func(int) Value) *Table {
	tb.Helper()

	columns := make([]string, cols)
	columns[0] = "id"
	for c := 1; c < cols; c++ {
		columns[c] = fmt.Sprintf("%s_col_%d", name, c)
	}

	data := make([]Row, rows)
	for r := range data {
		row := make(Row, cols)
		row["id"] = key(r)
		for c := 1; c < cols; c++ {
			row[columns[c]] = String(fmt.Sprintf("value %d-%d", r%97, c))
		}
		data[r] = row
	}

	t, err := NewTable(name, columns, data)
	if err != nil {
		tb.Fatal(err)
	}
	return t
}
