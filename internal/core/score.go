package core

// score.go ranks column pairs as join-key candidates.
//
// Every column of table A is paired with every column of table B. Each pair
// gets two sub-scores:
//   - name similarity: 1.0 for identical names after normalization, a partial
//     score for substring/abbreviation relationships, a smaller fuzzy score for
//     close spellings, otherwise 0
//   - overlap: |A ∩ B| / min(|A|, |B|) over distinct normalized values, which
//     rewards the common case of one key set being a subset of the other
//
// The confidence is a weighted sum. Value evidence outweighs naming, and pairs
// below the minimum overlap are rejected outright no matter how well the
// names match. Pairs where neither column is near-unique are rejected too:
// two low-cardinality columns trivially share every label.

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Scoring defaults. Exposed as constants so tests and config can refer to them.
const (
	DefaultOverlapWeight       = 0.7
	DefaultNameWeight          = 0.3
	DefaultMinOverlap          = 0.3
	DefaultPartialNameScore    = 0.6
	DefaultFuzzyNameFloor      = 0.75
	DefaultMinUniqueness       = NearUniqueRatio
	DefaultSingleValueDiscount = 0.5
	DefaultAmbiguityMargin     = 0.05
)

// ScoringConfig holds the tunable parameters of the candidate scorer.
type ScoringConfig struct {
	OverlapWeight float64 // Weight of the value-overlap sub-score
	NameWeight    float64 // Weight of the name-similarity sub-score

	// MinOverlap rejects pairs whose overlap score is below it.
	MinOverlap float64

	// PartialNameScore is awarded for substring/abbreviation name matches.
	PartialNameScore float64

	// FuzzyNameFloor is the minimum Levenshtein ratio for a fuzzy name match.
	// Fuzzy matches score ratio * PartialNameScore, always below a partial match.
	FuzzyNameFloor float64

	// MinUniqueness rejects pairs where neither column has a distinct/non-null
	// ratio of at least this much. One near-unique side is enough, so
	// many-to-one keys (customers vs orders) still qualify while two
	// categorical columns sharing a few labels do not. 0 disables the gate.
	MinUniqueness float64

	// SingleValueDiscount scales the overlap contribution when either column
	// has a single distinct value, so a shared constant never outranks a real key.
	SingleValueDiscount float64

	// AmbiguityMargin flags the top two candidates as ambiguous when their
	// confidences are closer than this.
	AmbiguityMargin float64
}

// DefaultScoringConfig returns the documented defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		OverlapWeight:       DefaultOverlapWeight,
		NameWeight:          DefaultNameWeight,
		MinOverlap:          DefaultMinOverlap,
		PartialNameScore:    DefaultPartialNameScore,
		FuzzyNameFloor:      DefaultFuzzyNameFloor,
		MinUniqueness:       DefaultMinUniqueness,
		SingleValueDiscount: DefaultSingleValueDiscount,
		AmbiguityMargin:     DefaultAmbiguityMargin,
	}
}

// KeyCandidate is one scored (column A, column B) pair. Immutable once built.
type KeyCandidate struct {
	ColumnA    string  `json:"column_a" yaml:"column_a"`
	ColumnB    string  `json:"column_b" yaml:"column_b"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	NameScore  float64 `json:"name_score" yaml:"name_score"`
	Overlap    float64 `json:"overlap" yaml:"overlap"`

	// Supporting evidence.
	SharedValues int     `json:"shared_values" yaml:"shared_values"`
	DistinctA    int     `json:"distinct_a" yaml:"distinct_a"`
	DistinctB    int     `json:"distinct_b" yaml:"distinct_b"`
	UniquenessA  float64 `json:"uniqueness_a" yaml:"uniqueness_a"`
	UniquenessB  float64 `json:"uniqueness_b" yaml:"uniqueness_b"`

	// RejectReason is set on rejected pairs only.
	RejectReason string `json:"reject_reason,omitempty" yaml:"reject_reason,omitempty"`

	indexA int
	indexB int
}

// Cardinality returns the combined distinct count of both columns.
func (c KeyCandidate) Cardinality() int { return c.DistinctA + c.DistinctB }

// CandidateReport is the full outcome of scoring two tables.
type CandidateReport struct {
	Candidates []KeyCandidate `json:"candidates" yaml:"candidates"` // Accepted, most confident first
	Rejected   []KeyCandidate `json:"rejected" yaml:"rejected"`     // Failed MinOverlap or MinUniqueness, same ordering rules
	Ambiguous  bool           `json:"ambiguous" yaml:"ambiguous"`   // Top two within AmbiguityMargin
}

// Best returns the top candidate, if any.
func (r CandidateReport) Best() (KeyCandidate, bool) {
	if len(r.Candidates) == 0 {
		return KeyCandidate{}, false
	}
	return r.Candidates[0], true
}

// Scorer ranks key candidates under a ScoringConfig. It holds no state
// besides its configuration and is safe for concurrent use.
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer creates a Scorer.
func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Config returns the scorer's configuration.
func (s *Scorer) Config() ScoringConfig { return s.cfg }

// ScoreCandidates ranks key candidates between a and b with default scoring.
func ScoreCandidates(a, b *Table) []KeyCandidate {
	return NewScorer(DefaultScoringConfig()).Score(a, b)
}

// Score returns the accepted candidates, most confident first.
func (s *Scorer) Score(a, b *Table) []KeyCandidate {
	return s.Assess(a, b).Candidates
}

// Assess scores every column pair and splits them into accepted and
// rejected lists. Tables without columns yield an empty report.
func (s *Scorer) Assess(a, b *Table) CandidateReport {
	report := CandidateReport{Candidates: []KeyCandidate{}, Rejected: []KeyCandidate{}}
	if a == nil || b == nil || len(a.Columns) == 0 || len(b.Columns) == 0 {
		return report
	}

	profilesA := ProfileAll(a)
	profilesB := ProfileAll(b)

	for _, pa := range profilesA {
		for _, pb := range profilesB {
			c := s.scorePair(pa, pb)
			if reason := s.rejectReason(c); reason != "" {
				c.RejectReason = reason
				report.Rejected = append(report.Rejected, c)
				continue
			}
			report.Candidates = append(report.Candidates, c)
		}
	}

	rankCandidates(report.Candidates)
	rankCandidates(report.Rejected)

	if len(report.Candidates) >= 2 {
		gap := report.Candidates[0].Confidence - report.Candidates[1].Confidence
		report.Ambiguous = gap < s.cfg.AmbiguityMargin
	}

	return report
}

// Reasons a pair is rejected.
const (
	RejectLowOverlap    = "low overlap"
	RejectLowUniqueness = "low uniqueness"
)

func (s *Scorer) rejectReason(c KeyCandidate) string {
	if c.Overlap <= 0 || c.Overlap < s.cfg.MinOverlap {
		return RejectLowOverlap
	}
	if math.Max(c.UniquenessA, c.UniquenessB) < s.cfg.MinUniqueness {
		return RejectLowUniqueness
	}
	return ""
}

// ScorePair scores one chosen column pair, whether or not it would be
// accepted by Assess.
func (s *Scorer) ScorePair(a, b *Table, columnA, columnB string) (KeyCandidate, error) {
	pa, err := Profile(a, columnA)
	if err != nil {
		return KeyCandidate{}, relabel(err, "key_a")
	}
	pb, err := Profile(b, columnB)
	if err != nil {
		return KeyCandidate{}, relabel(err, "key_b")
	}
	return s.scorePair(pa, pb), nil
}

func (s *Scorer) scorePair(pa, pb ColumnProfile) KeyCandidate {
	shared := pa.Values.IntersectionSize(pb.Values)
	overlap := OverlapScore(pa.Values, pb.Values)
	name := NameSimilarity(pa.Column, pb.Column, s.cfg)

	overlapTerm := overlap
	if pa.DistinctCount == 1 || pb.DistinctCount == 1 {
		overlapTerm *= s.cfg.SingleValueDiscount
	}

	return KeyCandidate{
		ColumnA:      pa.Column,
		ColumnB:      pb.Column,
		Confidence:   clamp01(s.cfg.OverlapWeight*overlapTerm + s.cfg.NameWeight*name),
		NameScore:    name,
		Overlap:      overlap,
		SharedValues: shared,
		DistinctA:    pa.DistinctCount,
		DistinctB:    pb.DistinctCount,
		UniquenessA:  pa.Uniqueness(),
		UniquenessB:  pb.Uniqueness(),
		indexA:       pa.Index,
		indexB:       pb.Index,
	}
}

// rankCandidates orders by confidence, then combined cardinality, then
// column position in A and B.
func rankCandidates(cands []KeyCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		ci, cj := cands[i], cands[j]
		if ci.Confidence != cj.Confidence {
			return ci.Confidence > cj.Confidence
		}
		if ci.Cardinality() != cj.Cardinality() {
			return ci.Cardinality() > cj.Cardinality()
		}
		if ci.indexA != cj.indexA {
			return ci.indexA < cj.indexA
		}
		return ci.indexB < cj.indexB
	})
}

// OverlapScore returns |a ∩ b| / min(|a|, |b|), or 0 when either set is empty.
// It is 1.0 exactly when one set is a subset of the other.
func OverlapScore(a, b ValueSet) float64 {
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	if smaller == 0 {
		return 0
	}
	return float64(a.IntersectionSize(b)) / float64(smaller)
}

// NameSimilarity compares two column names after normalization.
//
// Ordering is guaranteed: exact (1.0) > substring/abbreviation
// (cfg.PartialNameScore) > fuzzy spelling (< PartialNameScore) > none (0).
func NameSimilarity(a, b string, cfg ScoringConfig) float64 {
	tokensA := nameTokens(a)
	tokensB := nameTokens(b)
	na := strings.Join(tokensA, "")
	nb := strings.Join(tokensB, "")

	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	if isContained(tokensA, tokensB) || isContained(tokensB, tokensA) ||
		isAbbreviation(tokensA, tokensB) || isAbbreviation(tokensB, tokensA) {
		return cfg.PartialNameScore
	}

	ratio := levenshtein.RatioForStrings([]rune(na), []rune(nb), levenshtein.DefaultOptions)
	if ratio >= cfg.FuzzyNameFloor && ratio < 1 {
		return ratio * cfg.PartialNameScore
	}
	return 0
}

// minSubstringLen keeps short fragments like "id" from matching inside
// unrelated words ("paid", "width") unless they form a whole token.
const minSubstringLen = 3

// isContained reports whether inner appears inside outer, either as a run of
// whole tokens or as a substring of at least minSubstringLen characters.
func isContained(inner, outer []string) bool {
	if len(inner) == 0 || len(inner) > len(outer) {
		return false
	}
	for i := 0; i+len(inner) <= len(outer); i++ {
		match := true
		for j := range inner {
			if outer[i+j] != inner[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}

	in := strings.Join(inner, "")
	return len(in) >= minSubstringLen && strings.Contains(strings.Join(outer, ""), in)
}

// nameTokens lower-cases a column name and splits it on punctuation,
// whitespace and camelCase boundaries.
func nameTokens(name string) []string {
	var tokens []string
	var cur strings.Builder
	var prev rune

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && prev != 0 && unicode.IsLower(prev) {
				flush()
			}
			cur.WriteRune(unicode.ToLower(r))
		default:
			flush()
		}
		prev = r
	}
	flush()
	return tokens
}

// isAbbreviation reports whether short abbreviates long: either the initials
// of long spell short's single token ("sku" for stock_keeping_unit), or each token
// of short is a prefix of the matching token of long ("cust_num" for
// customer_number).
func isAbbreviation(short, long []string) bool {
	if len(short) == 0 || len(long) < 2 {
		return false
	}

	if len(short) == 1 {
		var initials strings.Builder
		for _, t := range long {
			initials.WriteRune([]rune(t)[0])
		}
		if initials.String() == short[0] {
			return true
		}
	}

	if len(short) != len(long) {
		return false
	}
	for i := range short {
		if !strings.HasPrefix(long[i], short[i]) {
			return false
		}
	}
	return true
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
