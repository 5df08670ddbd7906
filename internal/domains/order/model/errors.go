package model

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotOrderOwner        = errors.New("order belongs to another customer")
	ErrInvalidTransition    = errors.New("order status transition not allowed")
	ErrCannotCancel         = errors.New("order can no longer be cancelled")
	ErrReturnWindowClosed   = errors.New("return window has closed")
	ErrNotDelivered         = errors.New("only delivered orders can be returned")
	ErrAlreadyPaid          = errors.New("order is already paid")
	ErrPaymentNotPending    = errors.New("payment is no longer pending")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidStatus        = errors.New("invalid order status")
	ErrEmptyOrder           = errors.New("order must contain at least one item")
	ErrUpdateConflict       = errors.New("order was modified concurrently, retry the operation")
	ErrNumberExhausted      = errors.New("could not generate a unique order number")
)

// ErrorCode classifies order failures for the API envelope
type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "ORDER_NOT_FOUND"
	ErrCodeForbidden         ErrorCode = "ORDER_FORBIDDEN"
	ErrCodeInvalidTransition ErrorCode = "ORDER_INVALID_TRANSITION"
	ErrCodeCannotCancel      ErrorCode = "ORDER_CANNOT_CANCEL"
	ErrCodeReturnWindow      ErrorCode = "ORDER_RETURN_WINDOW_CLOSED"
	ErrCodeNotDelivered      ErrorCode = "ORDER_NOT_DELIVERED"
	ErrCodeAlreadyPaid       ErrorCode = "ORDER_ALREADY_PAID"
	ErrCodePaymentNotPending ErrorCode = "ORDER_PAYMENT_NOT_PENDING"
	ErrCodeUpdateConflict    ErrorCode = "BIZ_UPDATE_CONFLICT"
	ErrCodeValidation        ErrorCode = "VAL_INVALID_INPUT"
	ErrCodeInternal          ErrorCode = "SYS_INTERNAL_ERROR"
)

// ClassifyError maps an order error to its API code
func ClassifyError(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrNotOrderOwner):
		return ErrCodeForbidden
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvalidStatus):
		return ErrCodeInvalidTransition
	case errors.Is(err, ErrCannotCancel):
		return ErrCodeCannotCancel
	case errors.Is(err, ErrReturnWindowClosed):
		return ErrCodeReturnWindow
	case errors.Is(err, ErrNotDelivered):
		return ErrCodeNotDelivered
	case errors.Is(err, ErrAlreadyPaid):
		return ErrCodeAlreadyPaid
	case errors.Is(err, ErrPaymentNotPending):
		return ErrCodePaymentNotPending
	case errors.Is(err, ErrUpdateConflict), errors.Is(err, ErrNumberExhausted):
		return ErrCodeUpdateConflict
	case errors.Is(err, ErrInvalidPaymentMethod), errors.Is(err, ErrEmptyOrder):
		return ErrCodeValidation
	}
	return ErrCodeInternal
}

// IsBusinessError reports whether err is an expected order-flow condition
func IsBusinessError(err error) bool {
	return ClassifyError(err) != ErrCodeInternal
}
