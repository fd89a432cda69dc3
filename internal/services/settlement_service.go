package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/agentswap/backend/internal/audit"
	"github.com/agentswap/backend/internal/metrics"
	"github.com/agentswap/backend/internal/models"
)

const settlementQueueKey = "settlement_queue"

// ProofVerifier validates a payment proof and extracts the bound request id
// and payer claims.
type ProofVerifier interface {
	Verify(proof string) (*models.ProofClaims, error)
}

// SettlementService executes a verified payment proof against the ledger:
// exactly one execute call per swap request performs the exchange and
// transfer and yields a receipt; replays are rejected without re-running
// either step.
type SettlementService struct {
	ledger    *LedgerService
	proofs    ProofVerifier
	transfers *TransferService
	redis     *redis.Client
	audit     *audit.AuditLogger
}

func NewSettlementService(ledger *LedgerService, proofs ProofVerifier, transfers *TransferService, redisClient *redis.Client) *SettlementService {
	return &SettlementService{
		ledger:    ledger,
		proofs:    proofs,
		transfers: transfers,
		redis:     redisClient,
		audit:     audit.NewAuditLogger(),
	}
}

// Execute settles the swap request bound to the proof.
//
// The status flip happens before the exchange and transfer steps, matching
// the quoted-at-creation contract: a downstream step failure leaves the
// request COMPLETED even though funds did not move. Callers distinguish that
// outcome by the EXCHANGE_FAILED / TRANSFER_FAILED codes.
func (ss *SettlementService) Execute(ctx context.Context, proof string) (*models.Receipt, error) {
	claims, err := ss.proofs.Verify(proof)
	if err != nil {
		return nil, err
	}

	if _, err := ss.ledger.Get(ctx, claims.RequestID); err != nil {
		return nil, err
	}

	req, err := ss.ledger.MarkCompleted(ctx, claims.RequestID)
	if err != nil {
		if models.CodeOf(err) == models.ErrAlreadyCompleted {
			metrics.DuplicateExecutions.Inc()
			log.Printf("[SETTLEMENT] Replay rejected for swap request %s", claims.RequestID)
			return nil, models.NewSwapError(models.ErrDuplicateExecution,
				fmt.Sprintf("swap request %s was already settled", claims.RequestID))
		}
		return nil, err
	}

	exchangeRef, err := ss.exchange(req)
	if err != nil {
		ss.audit.LogError(req.ID, err)
		return nil, err
	}

	transferRef, err := ss.transfers.Transfer(req, claims.Payer)
	if err != nil {
		ss.audit.LogError(req.ID, err)
		return nil, err
	}

	if err := ss.transfers.Confirm(req, transferRef); err != nil {
		log.Printf("[SETTLEMENT] Confirmation send failed for %s: %v", req.ID, err)
	}

	receipt := &models.Receipt{
		RequestID:    req.ID,
		Pair:         req.Pair,
		SourceAmount: req.SourceAmount,
		TargetAmount: req.TargetAmount,
		Rate:         req.Rate,
		Payer:        claims.Payer,
		ExchangeRef:  exchangeRef,
		TransferRef:  transferRef,
		SettledAt:    time.Now(),
	}

	ss.queueReceipt(ctx, receipt)
	metrics.SwapsSettled.Inc()
	ss.audit.LogSettlement(req.ID, req.Pair, req.SourceAmount.String(), claims.Payer, transferRef)
	log.Printf("[SETTLEMENT] Settled swap request %s: %s %s at rate %s",
		req.ID, req.SourceAmount, req.Pair, req.Rate)

	return receipt, nil
}

// exchange performs the simulated exchange step. It is a deterministic
// function of the source amount and rate frozen on the request; the quote
// is locked at request creation, never at settlement.
func (ss *SettlementService) exchange(req *models.SwapRequest) (string, error) {
	if !req.Rate.IsPositive() {
		return "", models.NewSwapError(models.ErrExchangeFailed,
			fmt.Sprintf("swap request %s has a non-positive frozen rate", req.ID))
	}

	recomputed := req.SourceAmount.DivRound(req.Rate, 4)
	if !recomputed.Equal(req.TargetAmount) {
		return "", models.NewSwapError(models.ErrExchangeFailed,
			fmt.Sprintf("frozen target amount for %s does not match its quote", req.ID))
	}

	return "EXG-" + uuid.New().String(), nil
}

// queueReceipt pushes the receipt onto the Redis settlement queue. Best
// effort: a missing or unreachable Redis never fails the settlement.
func (ss *SettlementService) queueReceipt(ctx context.Context, receipt *models.Receipt) {
	if ss.redis == nil {
		return
	}

	data, err := json.Marshal(receipt)
	if err != nil {
		log.Printf("[SETTLEMENT] Failed to marshal receipt for %s: %v", receipt.RequestID, err)
		return
	}

	if err := ss.redis.RPush(ctx, settlementQueueKey, string(data)).Err(); err != nil {
		log.Printf("[SETTLEMENT] Failed to queue receipt for %s: %v", receipt.RequestID, err)
	}
}
