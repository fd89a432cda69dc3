package store

import (
	"context"
	"errors"

	"github.com/agentswap/backend/internal/models"
)

var (
	ErrNotFound         = errors.New("swap request not found")
	ErrAlreadyCompleted = errors.New("swap request already completed")
	ErrDuplicateID      = errors.New("swap request id already exists")
)

// SwapStore is the single keyed registry of swap requests. Implementations
// must make MarkCompleted an atomic PENDING -> COMPLETED transition: exactly
// one concurrent caller observes success, all others get ErrAlreadyCompleted.
type SwapStore interface {
	Create(ctx context.Context, req *models.SwapRequest) error
	Get(ctx context.Context, id string) (*models.SwapRequest, error)
	MarkCompleted(ctx context.Context, id string) (*models.SwapRequest, error)
}
