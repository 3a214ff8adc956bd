package service

import (
	"context"

	"flavorshop/internal/model"

	"github.com/google/uuid"
)

// ProductService defines read operations over the catalogue.
type ProductService interface {
	// GetAll retrieves all active products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single active product with its flavors.
	GetByID(ctx context.Context, id uuid.UUID) (*model.ProductDetail, error)
}

// OrderService defines operations for order placement and lookup.
type OrderService interface {
	// CreateOrder validates the cart, reserves stock, applies an optional
	// coupon and persists the order atomically.
	CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.OrderResponse, error)

	// VerifyOrder flips the verified flag on an order matched by number
	// and verification code.
	VerifyOrder(ctx context.Context, number, verificationCode string) (*model.VerifyOrderResponse, error)

	// GetByNumber retrieves an order with full line detail by number and
	// verification code.
	GetByNumber(ctx context.Context, number, verificationCode string) (*model.OrderResponse, error)
}
