package model

import "fmt"

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeInvalidLineFormat  = "INVALID_LINE_FORMAT"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeFlavorNotFound     = "FLAVOR_NOT_FOUND"
	ErrCodeUpsellNotFound     = "UPSELL_NOT_FOUND"
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeStockCorruption    = "STOCK_CORRUPTION"
	ErrCodeCouponNotFound     = "COUPON_NOT_FOUND"
	ErrCodeCouponExpired      = "COUPON_EXPIRED"
	ErrCodeMinimumNotMet      = "COUPON_MINIMUM_NOT_MET"
	ErrCodeUsageLimitReached  = "COUPON_USAGE_LIMIT_REACHED"
	ErrCodePerUserLimit       = "COUPON_PER_USER_LIMIT_REACHED"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
)

// DomainError is a business-rule failure carrying a stable code for API
// responses. Infrastructure failures are wrapped stdlib errors instead.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidLineFormat   = NewDomainError(ErrCodeInvalidLineFormat, "Cart line must reference either a product or an up-sell product, not both or neither")
	ErrInvalidQuantity     = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrProductNotFound     = NewDomainError(ErrCodeProductNotFound, "Product not found or inactive")
	ErrUpsellNotFound      = NewDomainError(ErrCodeUpsellNotFound, "Up-sell product not found or inactive")
	ErrInsufficientStock   = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock for one or more items")
	ErrStockCorruption     = NewDomainError(ErrCodeStockCorruption, "Stock counter reached an invalid state")
	ErrCouponNotFound      = NewDomainError(ErrCodeCouponNotFound, "Coupon code not found or inactive")
	ErrCouponExpired       = NewDomainError(ErrCodeCouponExpired, "Coupon is not valid at this time")
	ErrMinimumNotMet       = NewDomainError(ErrCodeMinimumNotMet, "Order subtotal is below the coupon minimum")
	ErrUsageLimitReached   = NewDomainError(ErrCodeUsageLimitReached, "Coupon usage limit has been reached")
	ErrPerUserLimitReached = NewDomainError(ErrCodePerUserLimit, "You have already used this coupon the maximum number of times")
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "Order not found")
)

// NewFlavorNotFoundError builds a FLAVOR_NOT_FOUND error naming the
// requested flavor and listing the currently active flavors for the
// product, for diagnostics.
func NewFlavorNotFoundError(requested string, active []string) *DomainError {
	msg := fmt.Sprintf("Flavor %q not found or inactive", requested)
	if len(active) > 0 {
		msg = fmt.Sprintf("%s; available flavors: %v", msg, active)
	}
	return NewDomainError(ErrCodeFlavorNotFound, msg)
}
