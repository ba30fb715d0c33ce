// Package errors provides custom error types for the finledger API.
// All service-layer errors should use AppError so the calling layer can map
// them to responses without leaking internal details to clients.
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

// Is reports whether target is an AppError with the same code, so wrapped
// copies of a sentinel still match it.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

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

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Account errors.
var (
	ErrAccountNotFound    = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
	ErrInvalidAccountType = &AppError{Code: "INVALID_ACCOUNT_TYPE", Message: "Unsupported account type", StatusCode: http.StatusBadRequest}
	ErrCreditCardNotFound = &AppError{Code: "CREDIT_CARD_NOT_FOUND", Message: "Credit card not found", StatusCode: http.StatusNotFound}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionKind = &AppError{Code: "INVALID_TRANSACTION_KIND", Message: "Unsupported transaction kind", StatusCode: http.StatusBadRequest}
	ErrInvalidStatus          = &AppError{Code: "INVALID_STATUS", Message: "Unsupported transaction status", StatusCode: http.StatusBadRequest}
	ErrInvoicePaymentTarget   = &AppError{Code: "INVALID_INVOICE_PAYMENT", Message: "Invoice payments require a source credit card", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetPeriodNotFound = &AppError{Code: "BUDGET_PERIOD_NOT_FOUND", Message: "Budget period not found", StatusCode: http.StatusNotFound}
	ErrInvalidPeriod        = &AppError{Code: "INVALID_PERIOD", Message: "Month must be 1-12 and year must be positive", StatusCode: http.StatusBadRequest}
)

// Catalog errors.
var (
	ErrCategoryNotFound  = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCategory = &AppError{Code: "DUPLICATE_CATEGORY", Message: "A category with this name already exists", StatusCode: http.StatusConflict}
	ErrDuplicateTag      = &AppError{Code: "DUPLICATE_TAG", Message: "A tag with this name already exists", StatusCode: http.StatusConflict}
)

// Operator errors.
var (
	ErrOpsNotConfigured = &AppError{Code: "OPS_NOT_CONFIGURED", Message: "Operator endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
	ErrInvalidAPIKey    = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
)
