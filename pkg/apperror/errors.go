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

// ---- Fulfillment (FUL) ----

// ErrUnknownTransaction signals a transaction reference that does not exist.
// Non-retryable: the caller passed a bad reference or data is corrupt.
func ErrUnknownTransaction(ref string) *AppError {
	return New("FUL_001", fmt.Sprintf("Unknown transaction reference: %s", ref), http.StatusNotFound)
}

// ErrNoVoucherBound is returned by the resend path when the transaction
// has no voucher to re-deliver.
func ErrNoVoucherBound(ref string) *AppError {
	return New("FUL_002", fmt.Sprintf("No voucher bound to transaction: %s", ref), http.StatusConflict)
}

// ErrTransactionFailed is returned when fulfillment is requested for a
// transaction whose payment terminally failed.
func ErrTransactionFailed(ref string) *AppError {
	return New("FUL_003", fmt.Sprintf("Transaction payment failed: %s", ref), http.StatusConflict)
}

// ---- Voucher Pool (VCH) ----

func ErrVoucherNotFound(code string) *AppError {
	return New("VCH_001", fmt.Sprintf("Voucher not found: %s", code), http.StatusNotFound)
}

func ErrEmptyImportBatch() *AppError {
	return New("VCH_002", "Voucher import batch is empty", http.StatusBadRequest)
}

// ---- Operator Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
