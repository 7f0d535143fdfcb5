package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Wallet Ledger (WAL) ----

func ErrInvalidAmount(reason string) *AppError {
	return New("WAL_001", fmt.Sprintf("Invalid amount: %s", reason), http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("WAL_002", "Insufficient wallet balance", http.StatusPaymentRequired)
}

func ErrNegativeBalanceAdjustment() *AppError {
	return New("WAL_003", "Adjustment would drive balance below zero", http.StatusUnprocessableEntity)
}

func ErrInactiveWallet() *AppError {
	return New("WAL_004", "Wallet is deactivated", http.StatusForbidden)
}

// ---- Shift Lifecycle (SHF) ----

func ErrShiftStateConflict(detail string) *AppError {
	return New("SHF_001", fmt.Sprintf("Shift state conflict: %s", detail), http.StatusConflict)
}

func ErrActiveShiftExists() *AppError {
	return New("SHF_002", "Staff member already has an active shift", http.StatusConflict)
}

func ErrInsufficientDrawerCash() *AppError {
	return New("SHF_003", "Cash drawer balance cannot cover this movement", http.StatusUnprocessableEntity)
}

// ---- Cash Handover (HND) ----

func ErrHandoverStateConflict(detail string) *AppError {
	return New("HND_001", fmt.Sprintf("Handover state conflict: %s", detail), http.StatusConflict)
}

func ErrHandoverUnauthorized() *AppError {
	return New("HND_002", "Handover is addressed to a different staff member", http.StatusForbidden)
}

// ---- Shared ----

func ErrNotFound(entity string) *AppError {
	return New("RES_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Security (SEC) ----

func ErrInvalidToken() *AppError {
	return New("SEC_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}
