package models

import "errors"

// ErrorCode is the closed enumeration of failure kinds the swap core can
// produce. Codes cross every boundary (service, relay, CLI) unchanged; the
// message text may vary but the kind must never be collapsed.
type ErrorCode string

const (
	ErrInvalidAmount      ErrorCode = "INVALID_AMOUNT"
	ErrUnknownRequest     ErrorCode = "UNKNOWN_REQUEST"
	ErrAlreadyCompleted   ErrorCode = "ALREADY_COMPLETED"
	ErrDuplicateExecution ErrorCode = "DUPLICATE_EXECUTION"
	ErrInvalidProof       ErrorCode = "INVALID_PROOF"
	ErrExchangeFailed     ErrorCode = "EXCHANGE_FAILED"
	ErrTransferFailed     ErrorCode = "TRANSFER_FAILED"
)

// SwapError is a typed error carrying one of the closed error codes.
type SwapError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *SwapError) Error() string {
	return e.Message
}

// NewSwapError builds a SwapError with the given code and message.
func NewSwapError(code ErrorCode, message string) *SwapError {
	return &SwapError{Code: code, Message: message}
}

// CodeOf returns the error code carried by err, or "" if err is not a
// SwapError.
func CodeOf(err error) ErrorCode {
	var se *SwapError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
