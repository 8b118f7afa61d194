package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/keymerge/internal/logging"
)

// MergeRecord is the history entry of one executed merge. Only the
// summary is kept, never the merged rows.
type MergeRecord struct {
	ID         uuid.UUID `json:"id" yaml:"id"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	FileA      string    `json:"file_a" yaml:"file_a"`
	FileB      string    `json:"file_b" yaml:"file_b"`
	Confidence *float64  `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	Summary MergeSummary `json:"summary" yaml:"summary"`
}

// Recorder persists merge history.
type Recorder interface {
	Record(ctx context.Context, rec MergeRecord) error
	List(ctx context.Context, limit int) ([]MergeRecord, error)
}

// Execution is the outcome of Service.Execute.
type Execution struct {
	Record MergeRecord
	Result *MergeResult
}

// Service wraps the pure core operations for long-running callers: it logs
// at operation boundaries, caps concurrent merges and records history.
// Suggest and Check are advisory; Execute is the only step that produces
// a merged table and it always takes an explicit MergeConfig.
type Service struct {
	scorer   *Scorer
	limiter  *MergeLimiter
	recorder Recorder
}

// NewService creates a Service. limiter and recorder may be nil.
func NewService(scoring ScoringConfig, limiter *MergeLimiter, recorder Recorder) *Service {
	return &Service{
		scorer:   NewScorer(scoring),
		limiter:  limiter,
		recorder: recorder,
	}
}

// Scorer returns the service's scorer.
func (s *Service) Scorer() *Scorer { return s.scorer }

// Limiter returns the merge limiter, or nil.
func (s *Service) Limiter() *MergeLimiter { return s.limiter }

// Suggest ranks key candidates between a and b.
func (s *Service) Suggest(ctx context.Context, a, b *Table) CandidateReport {
	report := s.scorer.Assess(a, b)

	logger := logging.FromContext(ctx)
	if best, ok := report.Best(); ok {
		logger.Info("key candidates scored",
			"candidates", len(report.Candidates),
			"rejected", len(report.Rejected),
			"best_a", best.ColumnA,
			"best_b", best.ColumnB,
			"confidence", best.Confidence,
			"ambiguous", report.Ambiguous,
		)
	} else {
		logger.Info("no confident key candidate", "rejected", len(report.Rejected))
	}

	return report
}

// Check validates a proposed key pair.
func (s *Service) Check(ctx context.Context, a, b *Table, keyA, keyB string) (MatchStatistics, error) {
	stats, err := Validate(a, b, keyA, keyB)
	if err != nil {
		logging.FromContext(ctx).Warn("key validation rejected", "key_a", keyA, "key_b", keyB, "error", err)
		return stats, err
	}

	logging.FromContext(ctx).Info("key pair validated",
		"key_a", keyA,
		"key_b", keyB,
		"matched", stats.Matched,
		"overlap_ratio", stats.OverlapRatio,
		"warnings", len(stats.Warnings),
	)
	return stats, nil
}

// Execute runs a confirmed merge. It reserves MergeCost(a, b) cells when a
// limiter is configured and records the summary when a recorder is.
// A failed history write is logged and does not fail the merge.
func (s *Service) Execute(ctx context.Context, a, b *Table, cfg MergeConfig) (*Execution, error) {
	if err := cfg.Validate(a, b); err != nil {
		return nil, err
	}

	if s.limiter != nil {
		reservation, err := s.limiter.Acquire(ctx, MergeCost(a, b))
		if err != nil {
			return nil, fmt.Errorf("reserve merge capacity: %w", err)
		}
		defer reservation.Release()
	}

	rec := MergeRecord{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		FileA:     a.Name,
		FileB:     b.Name,
	}
	ctx = logging.WithMergeID(ctx, rec.ID.String())
	logger := logging.WithFields(ctx, "join", cfg.Join, "key_a", cfg.KeyA, "key_b", cfg.KeyB)

	start := time.Now()
	result, err := Merge(a, b, cfg)
	if err != nil {
		return nil, err
	}
	// The merge itself is not interruptible; a caller that gave up gets nothing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cand, err := s.scorer.ScorePair(a, b, cfg.KeyA, cfg.KeyB); err == nil {
		conf := cand.Confidence
		rec.Confidence = &conf
	}
	rec.Summary = result.Summary

	logger.Info("merge completed",
		"rows_in_a", result.Summary.RowsInA,
		"rows_in_b", result.Summary.RowsInB,
		"rows_out", result.Summary.RowsOut,
		"matched_pairs", result.Summary.MatchedPairs,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, rec); err != nil {
			logger.Warn("failed to record merge history", "error", err)
		}
	}

	return &Execution{Record: rec, Result: result}, nil
}

// History returns up to limit recent merges, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]MergeRecord, error) {
	if s.recorder == nil {
		return []MergeRecord{}, nil
	}
	records, err := s.recorder.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list merge history: %w", err)
	}
	return records, nil
}
