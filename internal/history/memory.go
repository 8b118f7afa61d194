package history

import (
	"context"
	"sync"

	"github.com/JonMunkholm/keymerge/internal/core"
)

// MemoryStore keeps the most recent merges in memory. Records beyond
// capacity are dropped oldest first.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []core.MergeRecord
	capacity int
}

// NewMemoryStore creates a store holding at most capacity records.
// A non-positive capacity uses MaxListLimit.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = MaxListLimit
	}
	return &MemoryStore{capacity: capacity}
}

// Record appends rec, evicting the oldest record when full.
func (m *MemoryStore) Record(ctx context.Context, rec core.MergeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, rec)
	if over := len(m.records) - m.capacity; over > 0 {
		m.records = append([]core.MergeRecord(nil), m.records[over:]...)
	}
	return nil
}

// List returns up to limit records, newest first.
func (m *MemoryStore) List(ctx context.Context, limit int) ([]core.MergeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.MergeRecord, 0, min(limit, len(m.records)))
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
