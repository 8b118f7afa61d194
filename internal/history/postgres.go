// Package history persists merge summaries. PostgresStore keeps them in a
// merge_history table; MemoryStore keeps a bounded list for single-process
// use and tests. Both satisfy core.Recorder.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/keymerge/internal/core"
)

// DefaultListLimit applies when List is called with a non-positive limit.
const DefaultListLimit = 50

// MaxListLimit caps a single List call.
const MaxListLimit = 500

const schemaSQL = `
CREATE TABLE IF NOT EXISTS merge_history (
	id          UUID PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL,
	file_a      TEXT NOT NULL,
	file_b      TEXT NOT NULL,
	join_type   TEXT NOT NULL,
	key_a       TEXT NOT NULL,
	key_b       TEXT NOT NULL,
	confidence  DOUBLE PRECISION,
	rows_out    INTEGER NOT NULL,
	summary     JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS merge_history_created_at_idx ON merge_history (created_at DESC);
`

// PostgresStore records merges in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the store and makes sure its table exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the merge_history table if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create merge_history: %w", err)
	}
	return nil
}

// Record inserts one merge summary.
func (s *PostgresStore) Record(ctx context.Context, rec core.MergeRecord) error {
	summary, err := json.Marshal(rec.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	confidence := pgtype.Float8{}
	if rec.Confidence != nil {
		confidence = pgtype.Float8{Float64: *rec.Confidence, Valid: true}
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO merge_history
			(id, created_at, file_a, file_b, join_type, key_a, key_b, confidence, rows_out, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		pgtype.UUID{Bytes: rec.ID, Valid: true},
		pgtype.Timestamptz{Time: rec.CreatedAt, Valid: true},
		rec.FileA,
		rec.FileB,
		string(rec.Summary.Join),
		rec.Summary.KeyA,
		rec.Summary.KeyB,
		confidence,
		int32(rec.Summary.RowsOut),
		summary,
	)
	if err != nil {
		return fmt.Errorf("insert merge_history: %w", err)
	}
	return nil
}

// List returns the most recent merges, newest first.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]core.MergeRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, file_a, file_b, confidence, summary
		FROM merge_history ORDER BY created_at DESC LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query merge_history: %w", err)
	}
	defer rows.Close()

	records := make([]core.MergeRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func scanRecord(rows pgx.Rows) (core.MergeRecord, error) {
	var (
		id         pgtype.UUID
		createdAt  pgtype.Timestamptz
		fileA      string
		fileB      string
		confidence pgtype.Float8
		summary    []byte
	)
	if err := rows.Scan(&id, &createdAt, &fileA, &fileB, &confidence, &summary); err != nil {
		return core.MergeRecord{}, err
	}

	rec := core.MergeRecord{
		ID:        uuid.UUID(id.Bytes),
		CreatedAt: createdAt.Time,
		FileA:     fileA,
		FileB:     fileB,
	}
	if confidence.Valid {
		c := confidence.Float64
		rec.Confidence = &c
	}
	if err := json.Unmarshal(summary, &rec.Summary); err != nil {
		return core.MergeRecord{}, fmt.Errorf("decode summary %s: %w", rec.ID, err)
	}
	return rec, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
