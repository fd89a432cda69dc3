package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentswap/backend/internal/models"
	"github.com/agentswap/backend/internal/services"
	"github.com/agentswap/backend/internal/store"
)

type fixedRate struct{}

func (fixedRate) GetRate(_ context.Context, _ string) decimal.Decimal {
	return decimal.NewFromInt(150)
}

func newTestChatHandler(t *testing.T, signResults bool) *ChatHandler {
	t.Helper()

	viper.Set("proof.secret", "test-proof-secret")
	viper.Set("jwt.secret_key", "test-jwt-secret")
	viper.Set("agent.role", "responder")
	viper.Set("agent.sign_results", signResults)
	viper.Set("negotiation.max_rounds", 8)

	ledger := services.NewLedgerService(store.NewMemoryStore(), fixedRate{})
	proofs := services.NewProofService()
	settlement := services.NewSettlementService(ledger, proofs, services.NewTransferService(), nil)
	negotiation := services.NewNegotiationService(ledger, settlement, proofs)

	return NewChatHandler(negotiation)
}

func postChat(t *testing.T, handler *ChatHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.Chat(rec, req)
	return rec
}

func TestChatHandlerChat(t *testing.T) {
	t.Run("Executes Instruction", func(t *testing.T) {
		handler := newTestChatHandler(t, false)

		rec := postChat(t, handler, `{"instruction": "swap 25 USD/JPY"}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp models.ChatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Result, "created swap request")
		assert.Contains(t, resp.Result, "0.1667")
		assert.Empty(t, resp.Token)
	})

	t.Run("Help Instruction", func(t *testing.T) {
		handler := newTestChatHandler(t, false)

		rec := postChat(t, handler, `{"instruction": "help"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Supported instructions")
	})

	t.Run("Preserves Error Codes", func(t *testing.T) {
		handler := newTestChatHandler(t, false)

		rec := postChat(t, handler, `{"instruction": "swap -5 USD/JPY"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp services.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(models.ErrInvalidAmount), resp.Code)
	})

	t.Run("Unknown Request Maps To 404", func(t *testing.T) {
		handler := newTestChatHandler(t, false)

		rec := postChat(t, handler, `{"instruction": "status fd6c63c6-33c4-4aa0-913d-6ec3c77b972c"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		var resp services.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(models.ErrUnknownRequest), resp.Code)
	})

	t.Run("Rejects Unknown Fields", func(t *testing.T) {
		handler := newTestChatHandler(t, false)

		rec := postChat(t, handler, `{"instruction": "help", "extra": true}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Rejects Missing Instruction", func(t *testing.T) {
		handler := newTestChatHandler(t, false)

		rec := postChat(t, handler, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Validation failed")
	})

	t.Run("Signs Results When Configured", func(t *testing.T) {
		handler := newTestChatHandler(t, true)

		rec := postChat(t, handler, `{"instruction": "help"}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp models.ChatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Result)
		assert.NotEmpty(t, resp.Token)
	})
}

func TestChatHandlerStatus(t *testing.T) {
	handler := newTestChatHandler(t, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.Status(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "responder")
	assert.Contains(t, rec.Body.String(), "POST /chat")
}
