package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentswap/backend/internal/models"
	"github.com/agentswap/backend/internal/services"
	"github.com/agentswap/backend/internal/store"
)

func newTestQRRouter() (*chi.Mux, *services.LedgerService) {
	ledger := services.NewLedgerService(store.NewMemoryStore(), fixedRate{})
	handler := NewQRHandler(ledger, services.NewQRService(nil))

	r := chi.NewRouter()
	r.Get("/requests/{id}/qr", handler.RequestQR)
	return r, ledger
}

func TestQRHandlerRequestQR(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns Handle For Pending Request", func(t *testing.T) {
		router, ledger := newTestQRRouter()

		req, err := ledger.CreateRequest(ctx, "USD/JPY", decimal.NewFromInt(25))
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/requests/"+req.ID+"/qr", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, req.ID, resp["requestId"])
		assert.NotEmpty(t, resp["handle"])
		assert.NotEmpty(t, resp["qrImage"])
	})

	t.Run("Unknown Request Maps To 404", func(t *testing.T) {
		router, _ := newTestQRRouter()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/requests/fd6c63c6-33c4-4aa0-913d-6ec3c77b972c/qr", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var resp services.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(models.ErrUnknownRequest), resp.Code)
	})

	t.Run("Completed Request Is Rejected", func(t *testing.T) {
		router, ledger := newTestQRRouter()

		req, err := ledger.CreateRequest(ctx, "USD/JPY", decimal.NewFromInt(25))
		require.NoError(t, err)
		_, err = ledger.MarkCompleted(ctx, req.ID)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/requests/"+req.ID+"/qr", nil))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
