// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal             = "INTERNAL_ERROR"
	CodeDatabase             = "DATABASE_ERROR"
	CodeSequencerUnavailable = "SEQUENCER_UNAVAILABLE"

	// Validation errors (400)
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidQuantity = "INVALID_QUANTITY"

	// Business rule violations (422)
	CodeBusinessRule           = "BUSINESS_RULE_VIOLATION"
	CodeMissingTaxCategory     = "MISSING_TAX_CATEGORY"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Authorization errors (401)
	CodeUnauthorized = "UNAUTHORIZED"

	// Authorization errors (403)
	CodeForbidden = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict          = "CONFLICT"
	CodeDuplicate         = "DUPLICATE_ENTRY"
	CodeSequenceExhausted = "SEQUENCE_EXHAUSTED"

	// CodeSequenceConflict is transient and retried by the sequencer.
	// It should never reach an API client.
	CodeSequenceConflict = "SEQUENCE_CONFLICT"
)

// AppError is the standard error type for the service.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, ids, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidQuantity is returned when a line item quantity is not a positive integer.
func NewInvalidQuantity(quantity int) *AppError {
	return &AppError{
		Code:       CodeInvalidQuantity,
		Message:    "quantity must be a positive integer",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": "quantity", "value": quantity},
	}
}

// NewMissingTaxCategory is returned when no tax rate can be resolved for a product.
func NewMissingTaxCategory(productID any) *AppError {
	return &AppError{
		Code:       CodeMissingTaxCategory,
		Message:    "product has no tax category; an item cannot be priced without a rate",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"product_id": productID},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewSequenceConflict wraps a transient number-assignment race reported by the database.
func NewSequenceConflict(key string, err error) *AppError {
	return &AppError{
		Code:       CodeSequenceConflict,
		Message:    "concurrent number assignment detected",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"sequence": key},
		Err:        err,
	}
}

// NewSequenceExhausted is returned when the counter would exceed the configured digit width.
func NewSequenceExhausted(key string, max int64) *AppError {
	return &AppError{
		Code:       CodeSequenceExhausted,
		Message:    "invoice number sequence exhausted",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"sequence": key, "max": max},
	}
}

// NewSequencerUnavailable is returned after conflict retries are used up.
func NewSequencerUnavailable(key string, attempts int, err error) *AppError {
	return &AppError{
		Code:       CodeSequencerUnavailable,
		Message:    "invoice numbering is temporarily unavailable, please retry",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"sequence": key, "attempts": attempts},
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode reports whether err carries the given AppError code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return IsCode(err, CodeConcurrentModification)
}

// IsSequenceConflict checks if error is a retryable sequence conflict.
func IsSequenceConflict(err error) bool {
	return IsCode(err, CodeSequenceConflict)
}
