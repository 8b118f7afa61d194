package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeCost(t *testing.T) {
	a := mustTable(t, "a", []string{"id", "name"}, []any{1, "x"}, []any{2, "y"}, []any{3, "z"})
	b := mustTable(t, "b", []string{"id", "v", "w"}, []any{1, 2, 3}, []any{4, 5, 6})
	empty := mustTable(t, "e", []string{"id"})

	tests := []struct {
		name string
		a, b *Table
		want int64
	}{
		{name: "rows times columns", a: a, b: b, want: 12},
		{name: "one side empty", a: a, b: empty, want: 6},
		{name: "both empty", a: empty, b: empty, want: 1},
		{name: "nil tables", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeCost(tt.a, tt.b))
		})
	}
}

func TestMergeLimiter_SharesBudget(t *testing.T) {
	limiter := NewMergeLimiter(100, time.Second)
	ctx := context.Background()

	big, err := limiter.Acquire(ctx, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(60), big.Cells())

	_, ok := limiter.TryAcquire(50)
	assert.False(t, ok, "50 cells should not fit beside 60 of 100")

	small, ok := limiter.TryAcquire(40)
	require.True(t, ok)

	assert.Equal(t, LimiterStatus{Active: 2, CellsInUse: 100, CellsBudget: 100}, limiter.Status())

	big.Release()
	small.Release()
	assert.Equal(t, LimiterStatus{Active: 0, CellsInUse: 0, CellsBudget: 100}, limiter.Status())
}

func TestMergeLimiter_OversizedMergeRunsAlone(t *testing.T) {
	limiter := NewMergeLimiter(10, time.Second)

	r, err := limiter.Acquire(context.Background(), 1_000)
	require.NoError(t, err)
	assert.Equal(t, int64(10), r.Cells())

	_, ok := limiter.TryAcquire(1)
	assert.False(t, ok)

	r.Release()
	r2, ok := limiter.TryAcquire(1)
	require.True(t, ok)
	r2.Release()
}

func TestMergeLimiter_ReleaseTwice(t *testing.T) {
	limiter := NewMergeLimiter(10, time.Second)

	r, ok := limiter.TryAcquire(4)
	require.True(t, ok)
	r.Release()
	assert.NotPanics(t, r.Release)
	assert.Equal(t, 0, limiter.ActiveCount())
	assert.Zero(t, limiter.Status().CellsInUse)
}

func TestMergeLimiter_RejectsWhenFull(t *testing.T) {
	limiter := NewMergeLimiter(10, 100*time.Millisecond)
	ctx := context.Background()

	held, err := limiter.Acquire(ctx, 8)
	require.NoError(t, err)
	defer held.Release()

	start := time.Now()
	_, err = limiter.Acquire(ctx, 5)
	elapsed := time.Since(start)

	assert.True(t, errors.Is(err, ErrTooManyMerges), "got %v", err)
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
	assert.Equal(t, "MRG001", MapError(err).Code)
}

func TestMergeLimiter_NeverExceedsBudget(t *testing.T) {
	const budget = 30
	const cost = 10

	limiter := NewMergeLimiter(budget, 5*time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var maxCells int64

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			r, err := limiter.Acquire(context.Background(), cost)
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer r.Release()

			mu.Lock()
			if in := limiter.Status().CellsInUse; in > maxCells {
				maxCells = in
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, maxCells, int64(budget))
	assert.Equal(t, 0, limiter.ActiveCount())
}

func TestMergeLimiter_ContextCancellation(t *testing.T) {
	limiter := NewMergeLimiter(1, 5*time.Second)

	held, err := limiter.Acquire(context.Background(), 1)
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := limiter.Acquire(ctx, 1)
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(time.Second):
		t.Error("Acquire did not return after context cancellation")
	}
}

func TestMergeLimiter_WaitForDrain(t *testing.T) {
	limiter := NewMergeLimiter(10, time.Second)
	ctx := context.Background()

	r1, err := limiter.Acquire(ctx, 3)
	require.NoError(t, err)
	r2, err := limiter.Acquire(ctx, 4)
	require.NoError(t, err)

	drainDone := make(chan error, 1)
	go func() {
		drainDone <- limiter.WaitForDrain(context.Background())
	}()

	select {
	case <-drainDone:
		t.Fatal("WaitForDrain returned too early")
	case <-time.After(50 * time.Millisecond):
	}

	r1.Release()
	r2.Release()

	select {
	case err := <-drainDone:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Error("WaitForDrain did not complete after all released")
	}

	r3, ok := limiter.TryAcquire(10)
	require.True(t, ok, "drain must give the budget back")
	r3.Release()
}

func TestMergeLimiter_WaitForDrainTimeout(t *testing.T) {
	limiter := NewMergeLimiter(5, time.Second)
	held, ok := limiter.TryAcquire(1)
	require.True(t, ok)
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, limiter.WaitForDrain(ctx), context.DeadlineExceeded)
}

func TestMergeLimiter_Defaults(t *testing.T) {
	limiter := NewMergeLimiter(0, 0)
	assert.Equal(t, DefaultMergeCellBudget, limiter.Budget())
	assert.NoError(t, limiter.WaitForDrain(context.Background()))
}
