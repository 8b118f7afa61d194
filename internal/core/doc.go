// Package core provides the key-detection, validation and merge engine.
//
// Given two loaded tables, the package infers which column pair most likely
// joins them, reports how well that pair matches, and finally merges them
// under a caller-confirmed configuration. It has no file, network or display
// access and can be used by web handlers, CLI tools, or tests without
// modification.
//
// # Values and Normalization
//
// Cells are a closed variant ([Value]): null, string, int, float or bool.
// [Normalize] maps every cell to a comparable [NormalizedValue]:
//
//	core.Normalize(core.Float(64356145.0)) == core.Normalize(core.String("64356145"))
//	core.Normalize(core.String("  Bob ")) == core.Normalize(core.String("bob"))
//	core.Normalize(core.String("   ")).IsNull()
//
// Zero-padded codes such as "001" are not numeric formatting and stay
// distinct from 1.
//
// # Review Then Merge
//
// The workflow is two-step. [Scorer.Assess] and [Validate] are advisory and
// side-effect free; callers show their output, let the user confirm a key
// pair, and only then call [Merge] with an explicit [MergeConfig]:
//
//	report := core.NewScorer(core.DefaultScoringConfig()).Assess(a, b)
//	best, ok := report.Best()
//	if !ok || report.Ambiguous {
//	    // ask the user
//	}
//	stats, err := core.Validate(a, b, best.ColumnA, best.ColumnB)
//	...
//	result, err := core.Merge(a, b, core.NewMergeConfig(core.JoinLeft, best.ColumnA, best.ColumnB))
//
// [Service] wraps the same calls with logging, a concurrency cap
// ([MergeLimiter]) and merge history ([Recorder]).
//
// # Error Handling
//
// Invalid merge requests return a [*ConfigurationError]; the merge is not
// attempted. Scoring and validation of tables without columns return empty
// results instead of failing. Technical errors are mapped to coded user
// messages with [MapError].
package core
