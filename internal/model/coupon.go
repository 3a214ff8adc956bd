package model

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType enumerates the coupon variants. Discount computation is
// dispatched on this type rather than string-matching at call sites.
type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
	DiscountFreeShip    DiscountType = "free_shipping"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountPercentage, DiscountFixedAmount, DiscountFreeShip:
		return true
	}
	return false
}

// Coupon represents a discount code with temporal, monetary and usage
// constraints. UsageLimit and PerUserLimit are unlimited when nil.
type Coupon struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	Code           string       `json:"code" db:"code"`
	DiscountType   DiscountType `json:"discountType" db:"discount_type"`
	Value          int          `json:"value" db:"value"`
	MinOrderAmount int          `json:"minOrderAmount" db:"min_order_amount"`
	MaxDiscount    *int         `json:"maxDiscount,omitempty" db:"max_discount"`
	UsageLimit     *int         `json:"usageLimit,omitempty" db:"usage_limit"`
	PerUserLimit   *int         `json:"perUserLimit,omitempty" db:"per_user_limit"`
	ValidFrom      time.Time    `json:"validFrom" db:"valid_from"`
	ValidUntil     time.Time    `json:"validUntil" db:"valid_until"`
	Active         bool         `json:"active" db:"active"`
	UsedCount      int          `json:"usedCount" db:"used_count"`
}

// CouponUsage records one redemption of a coupon by one customer on one
// order. The row count per (coupon, phone) pair enforces per-user limits.
type CouponUsage struct {
	ID            uuid.UUID `db:"id"`
	CouponID      uuid.UUID `db:"coupon_id"`
	OrderID       uuid.UUID `db:"order_id"`
	CustomerPhone string    `db:"customer_phone"`
	Discount      int       `db:"discount"`
	CreatedAt     time.Time `db:"created_at"`
}
