package model

import "errors"

var (
	ErrDiscountNotFound    = errors.New("discount code not found")
	ErrDiscountInactive    = errors.New("discount code is not active")
	ErrDiscountNotStarted  = errors.New("discount code is not yet active")
	ErrDiscountExpired     = errors.New("discount code has expired")
	ErrUsageLimitReached   = errors.New("discount code has reached its usage limit")
	ErrCustomerLimitReached = errors.New("you have reached the usage limit for this discount code")
	ErrMinOrderNotMet      = errors.New("order value does not meet the minimum required for this discount")
	ErrMaxOrderExceeded    = errors.New("order value exceeds the maximum allowed for this discount")
	ErrNotEligible         = errors.New("this discount code is not available for your account")
	ErrTierNotEligible     = errors.New("this discount code is not available for your loyalty tier")
	ErrNewCustomersOnly    = errors.New("this discount code is for new customers only")
	ErrLocationNotEligible = errors.New("this discount code is not available in your delivery area")
	ErrNotValidNow         = errors.New("this discount code is not valid at this time")
	ErrCartNotEligible     = errors.New("this discount code does not apply to items in your cart")
	ErrDuplicateCode       = errors.New("discount code already exists")
	ErrInvalidCodeFormat   = errors.New("discount code must be 3-20 uppercase alphanumeric characters")
	ErrInvalidDiscountType = errors.New("invalid discount type")
	ErrInvalidDateRange    = errors.New("end_date must be after start_date")
	ErrUpdateConflict      = errors.New("discount was modified concurrently, retry the operation")
)

// ErrorCode classifies discount failures for the API envelope
type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "DISCOUNT_NOT_FOUND"
	ErrCodeInactive            ErrorCode = "DISCOUNT_INACTIVE"
	ErrCodeNotStarted          ErrorCode = "DISCOUNT_NOT_STARTED"
	ErrCodeExpired             ErrorCode = "DISCOUNT_EXPIRED"
	ErrCodeUsageLimitReached   ErrorCode = "DISCOUNT_USAGE_LIMIT_REACHED"
	ErrCodeCustomerLimit       ErrorCode = "DISCOUNT_CUSTOMER_LIMIT_REACHED"
	ErrCodeMinOrderNotMet      ErrorCode = "DISCOUNT_MIN_ORDER_NOT_MET"
	ErrCodeMaxOrderExceeded    ErrorCode = "DISCOUNT_MAX_ORDER_EXCEEDED"
	ErrCodeNotEligible         ErrorCode = "DISCOUNT_NOT_ELIGIBLE"
	ErrCodeDuplicateCode       ErrorCode = "VAL_DUPLICATE_CODE"
	ErrCodeInvalidCodeFormat   ErrorCode = "VAL_INVALID_CODE_FORMAT"
	ErrCodeValidationFailed    ErrorCode = "VAL_INVALID_INPUT"
	ErrCodeUpdateConflict      ErrorCode = "BIZ_UPDATE_CONFLICT"
	ErrCodeInternalError       ErrorCode = "SYS_INTERNAL_ERROR"
)

// ClassifyError maps a discount error to its API code. Unknown errors map to
// the internal code so nothing leaks.
func ClassifyError(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrDiscountNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrDiscountInactive):
		return ErrCodeInactive
	case errors.Is(err, ErrDiscountNotStarted):
		return ErrCodeNotStarted
	case errors.Is(err, ErrDiscountExpired):
		return ErrCodeExpired
	case errors.Is(err, ErrUsageLimitReached):
		return ErrCodeUsageLimitReached
	case errors.Is(err, ErrCustomerLimitReached):
		return ErrCodeCustomerLimit
	case errors.Is(err, ErrMinOrderNotMet):
		return ErrCodeMinOrderNotMet
	case errors.Is(err, ErrMaxOrderExceeded):
		return ErrCodeMaxOrderExceeded
	case errors.Is(err, ErrNotEligible), errors.Is(err, ErrTierNotEligible),
		errors.Is(err, ErrNewCustomersOnly), errors.Is(err, ErrLocationNotEligible),
		errors.Is(err, ErrNotValidNow), errors.Is(err, ErrCartNotEligible):
		return ErrCodeNotEligible
	case errors.Is(err, ErrDuplicateCode):
		return ErrCodeDuplicateCode
	case errors.Is(err, ErrInvalidCodeFormat):
		return ErrCodeInvalidCodeFormat
	case errors.Is(err, ErrUpdateConflict):
		return ErrCodeUpdateConflict
	}
	return ErrCodeInternalError
}

// IsBusinessError reports whether err is an expected, recoverable discount
// condition rather than a system failure.
func IsBusinessError(err error) bool {
	return ClassifyError(err) != ErrCodeInternalError
}
