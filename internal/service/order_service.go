package service

import (
	"context"
	"fmt"
	"time"

	"flavorshop/internal/checkout"
	"flavorshop/internal/coupon"
	"flavorshop/internal/model"
	"flavorshop/internal/notify"
	"flavorshop/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// orderService implements OrderService. It is the transaction coordinator:
// validation runs first with no side effects, then stock reservation,
// order number minting, coupon application and persistence all share one
// transaction that commits or rolls back as a unit.
type orderService struct {
	orderRepo   repository.OrderRepository
	stockRepo   repository.StockRepository
	validator   checkout.Validator
	numberGen   checkout.NumberGenerator
	coupons     coupon.Ledger
	notifier    notify.Notifier
	shippingFee int
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	stockRepo repository.StockRepository,
	validator checkout.Validator,
	numberGen checkout.NumberGenerator,
	coupons coupon.Ledger,
	notifier notify.Notifier,
	shippingFee int,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		stockRepo:   stockRepo,
		validator:   validator,
		numberGen:   numberGen,
		coupons:     coupons,
		notifier:    notifier,
		shippingFee: shippingFee,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder validates the cart, reserves stock, applies an optional
// coupon and persists the order atomically.
func (s *orderService) CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.OrderResponse, error) {
	// Validate request shape
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	// Resolve and price the cart server-side. No side effects yet.
	lines, subtotal, err := s.validator.Resolve(ctx, req.Lines)
	if err != nil {
		s.logger.Warn().Err(err).Int("line_count", len(req.Lines)).Msg("cart validation failed")
		return nil, err
	}

	// Start transaction
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	// Reserve stock line by line. The first failing decrement aborts the
	// whole order; earlier decrements are undone by the rollback, not by
	// manual compensation.
	if err = s.reserveStock(ctx, tx, lines); err != nil {
		return nil, err
	}

	// Mint the order number inside the transaction.
	var number string
	number, err = s.numberGen.Generate(ctx, func(ctx context.Context, n string) (bool, error) {
		return s.orderRepo.OrderNumberExists(ctx, tx, n)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}

	// Apply the coupon if a code was supplied. A failing coupon rejects
	// the order; it is never silently dropped.
	var redemption *coupon.Redemption
	if req.CouponCode != nil && *req.CouponCode != "" {
		redemption, err = s.coupons.Apply(ctx, tx, *req.CouponCode, req.CustomerPhone, subtotal)
		if err != nil {
			s.logger.Warn().
				Str("coupon_code", *req.CouponCode).
				Err(err).
				Msg("coupon rejected")
			return nil, err
		}
	}

	shipping := s.shippingFee
	discount := 0
	var couponID *uuid.UUID
	var couponCode *string
	if redemption != nil {
		discount = redemption.Discount
		if redemption.FreeShipping {
			shipping = 0
		}
		couponID = &redemption.Coupon.ID
		code := redemption.Coupon.Code
		couponCode = &code
	}

	now := time.Now()
	order := &model.Order{
		ID:               uuid.New(),
		OrderNumber:      number,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		StoreCode:        req.StoreCode,
		Subtotal:         subtotal,
		ShippingFee:      shipping,
		Discount:         discount,
		Total:            subtotal + shipping - discount,
		Status:           model.StatusPending,
		VerificationCode: checkout.NewVerificationCode(),
		CouponID:         couponID,
		CouponCode:       couponCode,
		CreatedAt:        now,
	}

	// Insert the order. A number collision that slipped past the minting
	// check surfaces as a unique violation; regenerate once and retry.
	if err = s.insertOrder(ctx, tx, order); err != nil {
		if !repository.IsOrderNumberConflict(err) {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}

		order.OrderNumber, err = s.numberGen.Generate(ctx, func(ctx context.Context, n string) (bool, error) {
			return s.orderRepo.OrderNumberExists(ctx, tx, n)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to regenerate order number: %w", err)
		}
		if err = s.insertOrder(ctx, tx, order); err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
	}

	// Record coupon usage in the same transaction as the order.
	if redemption != nil {
		if err = s.coupons.RecordUsage(ctx, tx, redemption, order.ID, req.CustomerPhone); err != nil {
			s.logger.Warn().
				Str("coupon_code", redemption.Coupon.Code).
				Err(err).
				Msg("failed to record coupon usage")
			return nil, err
		}
	}

	// Freeze the line items.
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].OrderID = order.ID
	}

	if err = s.orderRepo.InsertOrderLines(ctx, tx, lines); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("line_count", len(lines)).
			Msg("failed to create order lines")
		return nil, fmt.Errorf("failed to create order lines: %w", err)
	}

	// Commit transaction
	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Int("total", order.Total).
		Int("line_count", len(lines)).
		Msg("order created successfully")

	// Notify strictly after commit. A delivery failure never reverses the
	// order.
	s.notifyCreated(ctx, order, len(lines))

	return buildOrderResponse(order, lines, true), nil
}

// reserveStock runs the conditional decrement for every line within tx.
func (s *orderService) reserveStock(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	for i := range lines {
		line := &lines[i]

		var (
			ok        bool
			remaining int
			err       error
		)
		if line.UpsellID != nil {
			ok, remaining, err = s.stockRepo.DecrementUpsellStock(ctx, tx, *line.UpsellID, line.Quantity)
		} else {
			ok, remaining, err = s.stockRepo.DecrementFlavorStock(ctx, tx, *line.ProductID, *line.FlavorName, line.Quantity)
		}
		if err != nil {
			return fmt.Errorf("failed to reserve stock: %w", err)
		}
		if !ok {
			s.logger.Warn().
				Str("product_name", line.ProductName).
				Int("quantity", line.Quantity).
				Msg("insufficient stock")
			return model.ErrInsufficientStock
		}

		// Sanity assertion only: the conditional decrement cannot go
		// negative on its own. If the counter is negative anyway, the row
		// was corrupted outside this engine; compensate and fail hard.
		if remaining < 0 {
			var compErr error
			if line.UpsellID != nil {
				compErr = s.stockRepo.IncrementUpsellStock(ctx, tx, *line.UpsellID, line.Quantity)
			} else {
				compErr = s.stockRepo.IncrementFlavorStock(ctx, tx, *line.ProductID, *line.FlavorName, line.Quantity)
			}
			s.logger.Error().
				Str("product_name", line.ProductName).
				Int("remaining", remaining).
				AnErr("compensation_error", compErr).
				Msg("negative stock detected after decrement")
			return model.ErrStockCorruption
		}
	}

	return nil
}

// insertOrder inserts the order under a savepoint so a unique violation
// can be retried without aborting the outer transaction.
func (s *orderService) insertOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	nested, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin savepoint: %w", err)
	}

	if err := s.orderRepo.InsertOrder(ctx, nested, order); err != nil {
		if rbErr := nested.Rollback(ctx); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback savepoint")
		}
		return err
	}

	return nested.Commit(ctx)
}

// notifyCreated fires the post-commit notification hook.
func (s *orderService) notifyCreated(ctx context.Context, order *model.Order, lineCount int) {
	event := notify.OrderCreated{
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		StoreCode:     order.StoreCode,
		Total:         order.Total,
		LineCount:     lineCount,
		CreatedAt:     order.CreatedAt.Format(time.RFC3339),
	}

	if err := s.notifier.NotifyOrderCreated(ctx, event); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_number", order.OrderNumber).
			Msg("failed to send order created notification")
	}
}

// VerifyOrder flips the verified flag on a matching order.
func (s *orderService) VerifyOrder(ctx context.Context, number, verificationCode string) (*model.VerifyOrderResponse, error) {
	order, err := s.orderRepo.MarkVerified(ctx, number, verificationCode)
	if err != nil {
		s.logger.Error().Err(err).Str("order_number", number).Msg("failed to verify order")
		return nil, fmt.Errorf("failed to verify order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	s.logger.Info().Str("order_number", number).Msg("order verified")

	return &model.VerifyOrderResponse{
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		Total:        order.Total,
		Verified:     order.Verified,
	}, nil
}

// GetByNumber retrieves an order with full line detail.
func (s *orderService) GetByNumber(ctx context.Context, number, verificationCode string) (*model.OrderResponse, error) {
	order, lines, err := s.orderRepo.GetByNumber(ctx, number, verificationCode)
	if err != nil {
		s.logger.Error().Err(err).Str("order_number", number).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	return buildOrderResponse(order, lines, false), nil
}

// buildOrderResponse assembles the API payload. The verification code is
// echoed only on creation.
func buildOrderResponse(order *model.Order, lines []model.OrderLine, includeCode bool) *model.OrderResponse {
	resp := &model.OrderResponse{
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		Subtotal:     order.Subtotal,
		ShippingFee:  order.ShippingFee,
		Discount:     order.Discount,
		Total:        order.Total,
		Status:       order.Status,
		StatusLabel:  model.StatusLabel(order.Status),
		CouponCode:   order.CouponCode,
		Lines:        lines,
		CreatedAt:    order.CreatedAt,
	}
	if includeCode {
		resp.VerificationCode = order.VerificationCode
	}
	return resp
}

// validateOrderRequest validates the order request shape.
func (s *orderService) validateOrderRequest(req *model.CreateOrderRequest) error {
	if req == nil {
		return fmt.Errorf("order request is nil")
	}

	if req.CustomerName == "" {
		return fmt.Errorf("customer name is required")
	}

	if req.CustomerPhone == "" {
		return fmt.Errorf("customer phone is required")
	}

	if req.StoreCode == "" {
		return fmt.Errorf("store code is required")
	}

	if len(req.Lines) == 0 {
		return fmt.Errorf("order must contain at least one line")
	}

	return nil
}
