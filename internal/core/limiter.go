package core

// limiter.go admits merges against a shared in-memory cell budget.
//
// A merge holds both input tables and its output in memory at once, so the
// cost of admitting one grows with the size of its inputs, not with the
// number of requests. Each merge reserves MergeCost(a, b) cells from the
// budget; a merge larger than the whole budget reserves all of it and runs
// alone. When the budget is spent a request waits up to maxWait, then fails
// with ErrTooManyMerges.

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyMerges is returned when the budget does not free up within maxWait.
var ErrTooManyMerges = errors.New("merge capacity exhausted, please try again later")

// DefaultMergeCellBudget is the default number of input cells held by
// running merges at once.
const DefaultMergeCellBudget int64 = 20_000_000

// DefaultMaxWaitTime is how long to wait for budget before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// MergeCost returns the number of input cells a merge of a and b holds.
// Every merge costs at least one cell.
func MergeCost(a, b *Table) int64 {
	cells := tableCells(a) + tableCells(b)
	if cells < 1 {
		return 1
	}
	return cells
}

func tableCells(t *Table) int64 {
	if t == nil {
		return 0
	}
	return int64(len(t.Rows)) * int64(len(t.Columns))
}

// MergeLimiter is a weighted semaphore over the cell budget.
type MergeLimiter struct {
	sem     *semaphore.Weighted
	budget  int64
	maxWait time.Duration

	mu     sync.Mutex
	active int
	inUse  int64
}

// NewMergeLimiter shares budget cells between running merges.
// Non-positive arguments fall back to the defaults.
func NewMergeLimiter(budget int64, maxWait time.Duration) *MergeLimiter {
	if budget <= 0 {
		budget = DefaultMergeCellBudget
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &MergeLimiter{
		sem:     semaphore.NewWeighted(budget),
		budget:  budget,
		maxWait: maxWait,
	}
}

// Reservation is budget held by one admitted merge.
type Reservation struct {
	l     *MergeLimiter
	cells int64
	once  sync.Once
}

// Cells returns the number of cells reserved.
func (r *Reservation) Cells() int64 { return r.cells }

// Release returns the cells to the budget. Extra calls are no-ops.
func (r *Reservation) Release() {
	r.once.Do(func() {
		r.l.mu.Lock()
		r.l.active--
		r.l.inUse -= r.cells
		r.l.mu.Unlock()

		r.l.sem.Release(r.cells)
	})
}

// Acquire reserves cost cells, waiting up to maxWait for them.
// The caller MUST Release the reservation once done (use defer).
func (l *MergeLimiter) Acquire(ctx context.Context, cost int64) (*Reservation, error) {
	cells := l.clamp(cost)

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, cells); err != nil {
		// Caller cancellation wins over our own timeout.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrTooManyMerges
	}
	return l.admit(cells), nil
}

// TryAcquire reserves cost cells only if they are free right now.
func (l *MergeLimiter) TryAcquire(cost int64) (*Reservation, bool) {
	cells := l.clamp(cost)
	if !l.sem.TryAcquire(cells) {
		return nil, false
	}
	return l.admit(cells), true
}

func (l *MergeLimiter) clamp(cost int64) int64 {
	switch {
	case cost < 1:
		return 1
	case cost > l.budget:
		return l.budget
	}
	return cost
}

func (l *MergeLimiter) admit(cells int64) *Reservation {
	l.mu.Lock()
	l.active++
	l.inUse += cells
	l.mu.Unlock()
	return &Reservation{l: l, cells: cells}
}

// ActiveCount returns the number of merges holding a reservation.
func (l *MergeLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Budget returns the total cell budget.
func (l *MergeLimiter) Budget() int64 { return l.budget }

// WaitForDrain blocks until every running merge has released its cells,
// or ctx is done. New merges are held back while it waits.
func (l *MergeLimiter) WaitForDrain(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, l.budget); err != nil {
		return err
	}
	l.sem.Release(l.budget)
	return nil
}

// LimiterStatus is a snapshot for the health endpoint.
type LimiterStatus struct {
	Active      int   `json:"active"`
	CellsInUse  int64 `json:"cells_in_use"`
	CellsBudget int64 `json:"cells_budget"`
}

// Status returns the current limiter state.
func (l *MergeLimiter) Status() LimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	return LimiterStatus{
		Active:      l.active,
		CellsInUse:  l.inUse,
		CellsBudget: l.budget,
	}
}
