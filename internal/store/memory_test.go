package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentswap/backend/internal/models"
)

func pendingRequest(id string) *models.SwapRequest {
	return &models.SwapRequest{
		ID:           id,
		Pair:         "USD/JPY",
		SourceAmount: decimal.NewFromInt(25),
		TargetAmount: decimal.RequireFromString("0.1667"),
		Rate:         decimal.NewFromInt(150),
		Status:       models.SwapStatusPending,
		CreatedAt:    time.Now(),
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	req := pendingRequest("req-1")
	require.NoError(t, s.Create(ctx, req))

	got, err := s.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "req-1", got.ID)
	assert.Equal(t, models.SwapStatusPending, got.Status)
	assert.True(t, got.Rate.Equal(req.Rate))

	// Mutating the returned snapshot must not touch the stored entry.
	got.Status = models.SwapStatusCompleted
	again, err := s.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusPending, again.Status)
}

func TestMemoryStore_CreateDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Create(ctx, pendingRequest("req-1")))
	assert.ErrorIs(t, s.Create(ctx, pendingRequest("req-1")), ErrDuplicateID)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_MarkCompleted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, pendingRequest("req-1")))

	completed, err := s.MarkCompleted(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusCompleted, completed.Status)

	_, err = s.MarkCompleted(ctx, "req-1")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	_, err = s.MarkCompleted(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_MarkCompletedExactlyOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, pendingRequest("req-1")))

	const callers = 50
	var wg sync.WaitGroup
	results := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.MarkCompleted(ctx, "req-1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, replays int
	for err := range results {
		switch err {
		case nil:
			wins++
		case ErrAlreadyCompleted:
			replays++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, replays)
}
