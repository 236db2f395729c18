package errs

import (
	"errors"
	"net/http"
)

// Error is a domain error carrying a stable machine-readable code.
type Error struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Validation: malformed input, the caller's responsibility.
func Validation(message string) *Error {
	return New("validation", http.StatusBadRequest, message)
}

func NotFound(message string) *Error {
	return New("not_found", http.StatusNotFound, message)
}

// Conflict covers idempotency-key reuse and redemption/stock races. Not
// retryable with the same key or state.
func Conflict(code, message string) *Error {
	return New(code, http.StatusConflict, message)
}

// Rule is a domain-rule violation (coupon_* family, empty_cart,
// product_inactive).
func Rule(code, message string) *Error {
	return New(code, http.StatusUnprocessableEntity, message)
}

// Internal flags data-integrity gaps such as stock_item_missing.
func Internal(code, message string) *Error {
	return New(code, http.StatusInternalServerError, message)
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HTTPStatus maps any error to a response status, defaulting to 500.
func HTTPStatus(err error) int {
	if e, ok := As(err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}

// CodeOf returns the machine code, or "internal" for untyped errors.
func CodeOf(err error) string {
	if e, ok := As(err); ok {
		return e.Code
	}
	return "internal"
}
