package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SwapStatus is the lifecycle state of a swap request. The only legal
// transition is PENDING -> COMPLETED.
type SwapStatus string

const (
	SwapStatusPending   SwapStatus = "PENDING"
	SwapStatusCompleted SwapStatus = "COMPLETED"
)

// SwapRequest is a quoted, not-yet-settled exchange of one currency amount
// for another at a frozen rate. All fields except Status are immutable after
// creation; TargetAmount is derived once from SourceAmount and Rate and is
// never recomputed at settlement time.
type SwapRequest struct {
	ID           string          `json:"id"`
	Pair         string          `json:"pair"`
	SourceAmount decimal.Decimal `json:"sourceAmount"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	Rate         decimal.Decimal `json:"rate"`
	Status       SwapStatus      `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Receipt is returned once per swap request on its first successful
// settlement. ExchangeRef and TransferRef are opaque references to the
// simulated exchange and transfer steps.
type Receipt struct {
	RequestID    string          `json:"requestId"`
	Pair         string          `json:"pair"`
	SourceAmount decimal.Decimal `json:"sourceAmount"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	Rate         decimal.Decimal `json:"rate"`
	Payer        string          `json:"payer"`
	ExchangeRef  string          `json:"exchangeRef"`
	TransferRef  string          `json:"transferRef"`
	SettledAt    time.Time       `json:"settledAt"`
}

// ProofClaims are the claims extracted from a verified payment proof token.
type ProofClaims struct {
	RequestID string `json:"requestId"`
	Payer     string `json:"payer"`
	Amount    string `json:"amount"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Instruction string `json:"instruction" validate:"required"`
}

// ChatResponse carries either the plain result text or, when the relay runs
// in signed mode, a JWT wrapping the result.
type ChatResponse struct {
	Result string `json:"result,omitempty"`
	Token  string `json:"token,omitempty"`
}

// TokenRequest is the body of POST /auth/token (client credentials grant).
type TokenRequest struct {
	ClientID     string `json:"clientId" validate:"required"`
	ClientSecret string `json:"clientSecret" validate:"required"`
}

// TokenResponse is the successful response of POST /auth/token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
