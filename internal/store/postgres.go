package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/agentswap/backend/internal/models"
)

// PostgresStore is a durable SwapStore for deployments that want swap
// requests to survive a restart. The status transition relies on a
// conditional UPDATE so concurrent settlers race safely at the database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, req *models.SwapRequest) error {
	_, err := p.db.ExecContext(ctx, `
        INSERT INTO swap_requests
        (id, pair, source_amount, target_amount, rate, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, req.ID, req.Pair, req.SourceAmount.String(), req.TargetAmount.String(),
		req.Rate.String(), string(req.Status), req.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert swap request: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*models.SwapRequest, error) {
	req := &models.SwapRequest{}
	var source, target, rate, status string

	err := p.db.QueryRowContext(ctx, `
        SELECT id, pair, source_amount, target_amount, rate, status, created_at
        FROM swap_requests WHERE id = $1
    `, id).Scan(&req.ID, &req.Pair, &source, &target, &rate, &status, &req.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch swap request: %w", err)
	}

	if req.SourceAmount, err = decimal.NewFromString(source); err != nil {
		return nil, fmt.Errorf("corrupt source_amount for %s: %w", id, err)
	}
	if req.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return nil, fmt.Errorf("corrupt target_amount for %s: %w", id, err)
	}
	if req.Rate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("corrupt rate for %s: %w", id, err)
	}
	req.Status = models.SwapStatus(status)
	return req, nil
}

func (p *PostgresStore) MarkCompleted(ctx context.Context, id string) (*models.SwapRequest, error) {
	result, err := p.db.ExecContext(ctx, `
        UPDATE swap_requests SET status = $1
        WHERE id = $2 AND status = $3
    `, string(models.SwapStatusCompleted), id, string(models.SwapStatusPending))

	if err != nil {
		return nil, fmt.Errorf("failed to complete swap request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rows == 0 {
		// Lost the race or the id never existed; a follow-up read tells
		// the two apart.
		existing, getErr := p.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Status == models.SwapStatusCompleted {
			return nil, ErrAlreadyCompleted
		}
		return nil, ErrNotFound
	}

	return p.Get(ctx, id)
}
