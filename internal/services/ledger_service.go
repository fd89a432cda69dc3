package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agentswap/backend/internal/audit"
	"github.com/agentswap/backend/internal/metrics"
	"github.com/agentswap/backend/internal/models"
	"github.com/agentswap/backend/internal/store"
)

// RateSource supplies the current exchange rate for a pair. It never fails;
// oracle errors are absorbed into a fallback constant upstream.
type RateSource interface {
	GetRate(ctx context.Context, pair string) decimal.Decimal
}

// LedgerService owns the swap request state machine. All mutations of swap
// requests go through it; the relay and the settlement executor never reach
// into the store directly.
type LedgerService struct {
	store  store.SwapStore
	oracle RateSource
	audit  *audit.AuditLogger
}

func NewLedgerService(swapStore store.SwapStore, oracle RateSource) *LedgerService {
	return &LedgerService{
		store:  swapStore,
		oracle: oracle,
		audit:  audit.NewAuditLogger(),
	}
}

// CreateRequest quotes and registers a new swap. The rate is snapshotted
// once; the target amount is frozen at sourceAmount / rate and never
// recomputed at settlement time, so the requester has price certainty.
func (ls *LedgerService) CreateRequest(ctx context.Context, pair string, sourceAmount decimal.Decimal) (*models.SwapRequest, error) {
	if !sourceAmount.IsPositive() {
		return nil, models.NewSwapError(models.ErrInvalidAmount,
			"swap amount must be a positive number")
	}

	rate := ls.oracle.GetRate(ctx, pair)
	targetAmount := sourceAmount.DivRound(rate, 4)

	req := &models.SwapRequest{
		ID:           uuid.New().String(),
		Pair:         pair,
		SourceAmount: sourceAmount,
		TargetAmount: targetAmount,
		Rate:         rate,
		Status:       models.SwapStatusPending,
		CreatedAt:    time.Now(),
	}

	if err := ls.store.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to register swap request: %w", err)
	}

	metrics.SwapsCreated.Inc()
	ls.audit.LogSwapCreated(req.ID, req.Pair, req.SourceAmount.String(), req.Rate.String())
	log.Printf("[LEDGER] Created swap request %s: %s %s at rate %s",
		req.ID, req.SourceAmount, req.Pair, req.Rate)

	return req, nil
}

// Get is a pure lookup with no side effects.
func (ls *LedgerService) Get(ctx context.Context, id string) (*models.SwapRequest, error) {
	req, err := ls.store.Get(ctx, id)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, models.NewSwapError(models.ErrUnknownRequest,
				fmt.Sprintf("swap request %s not found", id))
		}
		return nil, err
	}
	return req, nil
}

// MarkCompleted atomically flips the request PENDING -> COMPLETED. Under
// concurrent invocation for the same id exactly one caller succeeds; the
// rest observe ALREADY_COMPLETED.
func (ls *LedgerService) MarkCompleted(ctx context.Context, id string) (*models.SwapRequest, error) {
	req, err := ls.store.MarkCompleted(ctx, id)
	if err != nil {
		switch err {
		case store.ErrNotFound:
			return nil, models.NewSwapError(models.ErrUnknownRequest,
				fmt.Sprintf("swap request %s not found", id))
		case store.ErrAlreadyCompleted:
			return nil, models.NewSwapError(models.ErrAlreadyCompleted,
				fmt.Sprintf("swap request %s already completed", id))
		default:
			return nil, err
		}
	}
	return req, nil
}
