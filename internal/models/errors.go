package models

import "errors"

// ErrorCode classifies a failure for the transport layer
type ErrorCode string

const (
	CodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	CodeBadRequest      ErrorCode = "BAD_REQUEST"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeConflict        ErrorCode = "CONFLICT"
	CodeInternal        ErrorCode = "INTERNAL"
)

// CheckoutError is a business failure returned by the checkout engine.
// Reason is the short code handed to form clients in the error query parameter.
type CheckoutError struct {
	Code    ErrorCode
	Message string
	Reason  string
}

func (e *CheckoutError) Error() string {
	return e.Message
}

func newCheckoutError(code ErrorCode, reason, message string) *CheckoutError {
	return &CheckoutError{Code: code, Message: message, Reason: reason}
}

// Business errors used throughout the application
var (
	ErrUnauthenticated    = newCheckoutError(CodeUnauthenticated, "unauth", "Unauthorized")
	ErrMissingItemID      = newCheckoutError(CodeBadRequest, "missing", "Missing itemId")
	ErrMissingCheckoutID  = newCheckoutError(CodeBadRequest, "missing", "Missing checkoutId")
	ErrInvalidDelta       = newCheckoutError(CodeBadRequest, "missing", "Invalid delta")
	ErrInvalidOperation   = newCheckoutError(CodeBadRequest, "missing", "Invalid operation")
	ErrItemNotFound       = newCheckoutError(CodeNotFound, "notfound", "Item not found")
	ErrItemExpired        = newCheckoutError(CodeConflict, "expired", "Item expired")
	ErrItemSoldOut        = newCheckoutError(CodeConflict, "soldout", "Item sold out")
	ErrNoPendingCheckout  = newCheckoutError(CodeNotFound, "missing", "No pending checkout")
	ErrItemNotInCheckout  = newCheckoutError(CodeNotFound, "notfound", "Item not in checkout")
	ErrCheckoutNotPending = newCheckoutError(CodeConflict, "state", "Checkout not found or already completed")
	ErrOrderNotFound      = newCheckoutError(CodeNotFound, "notfound", "Order not found")
)

// ErrNotFound is returned by the store when a row does not exist
var ErrNotFound = errors.New("not found")

// CodeOf returns the error code of err, INTERNAL for anything that is not a CheckoutError
func CodeOf(err error) ErrorCode {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeInternal
}

// ReasonOf returns the short redirect code for err
func ReasonOf(err error) string {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return "server"
}
