package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/agentswap/backend/internal/models"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	if validationErr != nil {
		errorResp.Details = make(map[string]string)
		for _, err := range validationErr.(validator.ValidationErrors) {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

// SendSwapError sends a JSON error response preserving the swap error code.
// Unknown errors fall through as a generic 500 without inventing a code.
func SendSwapError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	code := models.CodeOf(err)
	w.WriteHeader(statusForCode(code))
	json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error(), Code: string(code)})
}

func statusForCode(code models.ErrorCode) int {
	switch code {
	case models.ErrInvalidAmount:
		return http.StatusBadRequest
	case models.ErrInvalidProof:
		return http.StatusUnauthorized
	case models.ErrUnknownRequest:
		return http.StatusNotFound
	case models.ErrAlreadyCompleted, models.ErrDuplicateExecution:
		return http.StatusConflict
	case models.ErrExchangeFailed, models.ErrTransferFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
