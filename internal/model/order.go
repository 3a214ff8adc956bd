package model

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses. An order is created as StatusPending; later transitions
// happen through separate administrative operations.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// statusLabels maps a status to its human-readable label.
var statusLabels = map[string]string{
	StatusPending:   "Order received",
	StatusConfirmed: "Order confirmed",
	StatusShipped:   "Shipped",
	StatusCompleted: "Completed",
	StatusCancelled: "Cancelled",
}

// StatusLabel returns the human-readable label for an order status.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// Order represents a committed customer order. Monetary fields are frozen
// at creation: Total always equals Subtotal + ShippingFee - Discount.
type Order struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	OrderNumber      string     `json:"orderNumber" db:"order_number"`
	CustomerName     string     `json:"customerName" db:"customer_name"`
	CustomerPhone    string     `json:"customerPhone" db:"customer_phone"`
	StoreCode        string     `json:"storeCode" db:"store_code"`
	Subtotal         int        `json:"subtotal" db:"subtotal"`
	ShippingFee      int        `json:"shippingFee" db:"shipping_fee"`
	Discount         int        `json:"discount" db:"discount"`
	Total            int        `json:"total" db:"total"`
	Status           string     `json:"status" db:"status"`
	VerificationCode string     `json:"-" db:"verification_code"`
	Verified         bool       `json:"verified" db:"verified"`
	CouponID         *uuid.UUID `json:"-" db:"coupon_id"`
	CouponCode       *string    `json:"couponCode,omitempty" db:"coupon_code"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
}

// OrderLine is a frozen line item belonging to exactly one order. Exactly
// one of (ProductID, FlavorName) or UpsellID is set, never both.
type OrderLine struct {
	ID          uuid.UUID  `json:"-" db:"id"`
	OrderID     uuid.UUID  `json:"-" db:"order_id"`
	ProductID   *uuid.UUID `json:"productId,omitempty" db:"product_id"`
	FlavorName  *string    `json:"flavorName,omitempty" db:"flavor_name"`
	UpsellID    *uuid.UUID `json:"upsellId,omitempty" db:"upsell_id"`
	ProductName string     `json:"productName" db:"product_name"`
	UnitPrice   int        `json:"unitPrice" db:"unit_price"`
	Quantity    int        `json:"quantity" db:"quantity"`
	Subtotal    int        `json:"subtotal" db:"subtotal"`
}

// CartLineRequest is a single submitted cart line. For normal products
// ProductID is set and FlavorName optionally selects a variant; for
// up-sell lines UpsellID is set instead. Client-submitted prices are never
// accepted, pricing is resolved server-side.
type CartLineRequest struct {
	ProductID  *uuid.UUID `json:"productId,omitempty"`
	FlavorName *string    `json:"flavorName,omitempty"`
	UpsellID   *uuid.UUID `json:"upsellId,omitempty"`
	Quantity   int        `json:"quantity"`
}

// CreateOrderRequest is the request payload for creating an order.
type CreateOrderRequest struct {
	CustomerName  string            `json:"customerName"`
	CustomerPhone string            `json:"customerPhone"`
	StoreCode     string            `json:"storeCode"`
	CouponCode    *string           `json:"couponCode,omitempty"`
	Lines         []CartLineRequest `json:"lines"`
}

// OrderResponse is the response payload for a created or queried order.
type OrderResponse struct {
	OrderNumber      string      `json:"orderNumber"`
	VerificationCode string      `json:"verificationCode,omitempty"`
	CustomerName     string      `json:"customerName"`
	Subtotal         int         `json:"subtotal"`
	ShippingFee      int         `json:"shippingFee"`
	Discount         int         `json:"discount"`
	Total            int         `json:"total"`
	Status           string      `json:"status"`
	StatusLabel      string      `json:"statusLabel"`
	CouponCode       *string     `json:"couponCode,omitempty"`
	Lines            []OrderLine `json:"lines"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// VerifyOrderRequest is the request payload for verifying an order.
type VerifyOrderRequest struct {
	VerificationCode string `json:"verificationCode"`
}

// VerifyOrderResponse is returned after a successful verification.
type VerifyOrderResponse struct {
	OrderNumber  string `json:"orderNumber"`
	CustomerName string `json:"customerName"`
	Total        int    `json:"total"`
	Verified     bool   `json:"verified"`
}
