package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/agentswap/backend/internal/store"
)

// stubRateSource returns a fixed rate regardless of pair, standing in for
// the oracle.
type stubRateSource struct {
	rate decimal.Decimal
}

func (s *stubRateSource) GetRate(_ context.Context, _ string) decimal.Decimal {
	return s.rate
}

func setTestConfig() {
	viper.Set("proof.secret", "test-proof-secret")
	viper.Set("proof.verbose_decode", false)
	viper.Set("jwt.secret_key", "test-jwt-secret")
	viper.Set("jwt.expiry_hours", 24)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 64*1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)
	viper.Set("argon2.salt_length", 16)
	viper.Set("agent.role", "requester")
	viper.Set("negotiation.max_rounds", 8)
}

// newTestLedger builds a ledger over a fresh in-memory store with a fixed
// rate of 150.
func newTestLedger() (*LedgerService, *store.MemoryStore) {
	memStore := store.NewMemoryStore()
	ledger := NewLedgerService(memStore, &stubRateSource{rate: decimal.NewFromInt(150)})
	return ledger, memStore
}
