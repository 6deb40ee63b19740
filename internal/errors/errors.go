// Package errors provides custom error types for the Moneta API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Account errors.
var (
	ErrAccountNotFound = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
	ErrSameAccountTransfer    = &AppError{Code: "SAME_ACCOUNT_TRANSFER", Message: "Cannot transfer to the same account", StatusCode: http.StatusBadRequest}
	ErrMissingTransferAccount = &AppError{Code: "MISSING_TRANSFER_ACCOUNT", Message: "A transfer requires a destination account", StatusCode: http.StatusBadRequest}
)

// Recurring definition and generated instance errors.
var (
	ErrRecurringNotFound       = &AppError{Code: "RECURRING_NOT_FOUND", Message: "Recurring definition not found", StatusCode: http.StatusNotFound}
	ErrInstanceNotFound        = &AppError{Code: "INSTANCE_NOT_FOUND", Message: "Generated instance not found", StatusCode: http.StatusNotFound}
	ErrRecurringAccountMissing = &AppError{Code: "RECURRING_ACCOUNT_MISSING", Message: "Recurring definition references a deleted account", StatusCode: http.StatusConflict}
	ErrInvalidSchedule         = &AppError{Code: "INVALID_SCHEDULE", Message: "Invalid schedule rule", StatusCode: http.StatusBadRequest}
)

// Projection errors.
var (
	ErrInvalidViewMode = &AppError{Code: "INVALID_VIEW_MODE", Message: "View mode must be expected or actual", StatusCode: http.StatusBadRequest}
)
