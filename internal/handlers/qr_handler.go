package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agentswap/backend/internal/models"
	"github.com/agentswap/backend/internal/services"
)

type QRHandler struct {
	ledger  *services.LedgerService
	service *services.QRService
}

func NewQRHandler(ledger *services.LedgerService, service *services.QRService) *QRHandler {
	return &QRHandler{
		ledger:  ledger,
		service: service,
	}
}

// RequestQR handles GET /requests/{id}/qr, returning a scannable handle for
// a pending swap request.
func (h *QRHandler) RequestQR(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		services.SendSwapError(w, err)
		return
	}

	if req.Status != models.SwapStatusPending {
		services.SendErrorResponse(w, "Swap request is no longer pending", http.StatusConflict, nil)
		return
	}

	handle, image, err := h.service.GenerateRequestQR(r.Context(), req)
	if err != nil {
		log.Printf("[QR] Failed to generate QR for request %s: %v", id, err)
		services.SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"requestId": req.ID,
		"handle":    handle,
		"qrImage":   image,
	})
}
