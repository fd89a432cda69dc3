package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"

	"github.com/agentswap/backend/internal/models"
	"github.com/agentswap/backend/internal/services"
)

// ChatHandler is the negotiation relay boundary: it accepts free-text
// instructions from a counterparty and delegates everything to the
// negotiation strategy. It holds no swap state of its own.
type ChatHandler struct {
	negotiation *services.NegotiationService
	validator   *services.ValidationHelper
	role        string
	signResults bool
	startedAt   time.Time
}

func NewChatHandler(negotiation *services.NegotiationService) *ChatHandler {
	return &ChatHandler{
		negotiation: negotiation,
		validator:   services.NewValidationHelper(),
		role:        viper.GetString("agent.role"),
		signResults: viper.GetBool("agent.sign_results"),
		startedAt:   time.Now(),
	}
}

// Chat handles POST /chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := h.negotiation.HandleInstruction(r.Context(), req.Instruction)
	if err != nil {
		log.Printf("[CHAT] Instruction failed (%s): %v", models.CodeOf(err), err)
		services.SendSwapError(w, err)
		return
	}

	resp := models.ChatResponse{Result: result}
	if h.signResults {
		token, err := signResult(result)
		if err != nil {
			log.Printf("[CHAT] Failed to sign result: %v", err)
			services.SendErrorResponse(w, "Failed to sign result", http.StatusInternalServerError, nil)
			return
		}
		resp = models.ChatResponse{Token: token}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Status handles GET / with a human-readable status page.
func (h *ChatHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "agentswap relay\n")
	fmt.Fprintf(w, "role:   %s\n", h.role)
	fmt.Fprintf(w, "uptime: %s\n", time.Since(h.startedAt).Round(time.Second))
	fmt.Fprintf(w, "\nPOST /chat with {\"instruction\": \"help\"} to see supported instructions.\n")
}

// signResult wraps a chat result in a short-lived signed token for the
// authenticated relay variant.
func signResult(result string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"result": result,
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(5 * time.Minute).Unix(),
	})
	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}
