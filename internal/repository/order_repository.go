package repository

import (
	"context"
	"errors"
	"fmt"

	"flavorshop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// orderNumberConstraint is the unique constraint backing order numbers.
const orderNumberConstraint = "orders_order_number_key"

// IsOrderNumberConflict reports whether err is a unique violation on the
// order number constraint. The constraint is the real uniqueness backstop
// behind the generator's check-then-act minting.
func IsOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation && pgErr.ConstraintName == orderNumberConstraint
	}
	return false
}

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// OrderNumberExists reports whether an order number is already taken.
func (r *orderRepository) OrderNumberExists(ctx context.Context, tx pgx.Tx, number string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`

	var exists bool
	if err := tx.QueryRow(ctx, query, number).Scan(&exists); err != nil {
		r.logger.Error().Err(err).Str("order_number", number).Msg("failed to check order number")
		return false, fmt.Errorf("failed to check order number: %w", err)
	}
	return exists, nil
}

// InsertOrder inserts a new order within the provided transaction.
func (r *orderRepository) InsertOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, order_number, customer_name, customer_phone, store_code,
			subtotal, shipping_fee, discount, total, status,
			verification_code, verified, coupon_id, coupon_code, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.OrderNumber, order.CustomerName, order.CustomerPhone, order.StoreCode,
		order.Subtotal, order.ShippingFee, order.Discount, order.Total, order.Status,
		order.VerificationCode, order.Verified, order.CouponID, order.CouponCode, order.CreatedAt,
	)
	if err != nil {
		// Order-number conflicts are an expected (rare) outcome handled by
		// the caller, so log them at debug rather than error.
		if IsOrderNumberConflict(err) {
			r.logger.Debug().
				Str("order_number", order.OrderNumber).
				Msg("order number collision on insert")
			return fmt.Errorf("order number conflict: %w", err)
		}
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("order created successfully")

	return nil
}

// InsertOrderLines inserts the order's line items within the provided transaction.
func (r *orderRepository) InsertOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_lines (
			id, order_id, product_id, flavor_name, upsell_id,
			product_name, unit_price, quantity, subtotal
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(query,
			line.ID, line.OrderID, line.ProductID, line.FlavorName, line.UpsellID,
			line.ProductName, line.UnitPrice, line.Quantity, line.Subtotal,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(lines); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", lines[i].OrderID.String()).
				Str("product_name", lines[i].ProductName).
				Msg("failed to create order line")
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(lines)).
		Msg("order lines created successfully")

	return nil
}

// GetByNumber retrieves an order and its lines by order number and verification code.
func (r *orderRepository) GetByNumber(ctx context.Context, number, verificationCode string) (*model.Order, []model.OrderLine, error) {
	orderQuery := `
		SELECT id, order_number, customer_name, customer_phone, store_code,
		       subtotal, shipping_fee, discount, total, status,
		       verification_code, verified, coupon_id, coupon_code, created_at
		FROM orders
		WHERE order_number = $1 AND verification_code = $2
	`

	var order model.Order
	err := r.pool.QueryRow(ctx, orderQuery, number, verificationCode).Scan(
		&order.ID, &order.OrderNumber, &order.CustomerName, &order.CustomerPhone, &order.StoreCode,
		&order.Subtotal, &order.ShippingFee, &order.Discount, &order.Total, &order.Status,
		&order.VerificationCode, &order.Verified, &order.CouponID, &order.CouponCode, &order.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_number", number).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_number", number).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	linesQuery := `
		SELECT id, order_id, product_id, flavor_name, upsell_id,
		       product_name, unit_price, quantity, subtotal
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, linesQuery, order.ID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_number", number).
			Msg("failed to query order lines")
		return nil, nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []model.OrderLine
	for rows.Next() {
		var line model.OrderLine
		err := rows.Scan(
			&line.ID, &line.OrderID, &line.ProductID, &line.FlavorName, &line.UpsellID,
			&line.ProductName, &line.UnitPrice, &line.Quantity, &line.Subtotal,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order line row")
			return nil, nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order line rows")
		return nil, nil, fmt.Errorf("error iterating order lines: %w", err)
	}

	return &order, lines, nil
}

// MarkVerified flips the verified flag on a matching order and returns it.
func (r *orderRepository) MarkVerified(ctx context.Context, number, verificationCode string) (*model.Order, error) {
	query := `
		UPDATE orders
		SET verified = TRUE
		WHERE order_number = $1 AND verification_code = $2
		RETURNING id, order_number, customer_name, customer_phone, store_code,
		          subtotal, shipping_fee, discount, total, status,
		          verification_code, verified, coupon_id, coupon_code, created_at
	`

	var order model.Order
	err := r.pool.QueryRow(ctx, query, number, verificationCode).Scan(
		&order.ID, &order.OrderNumber, &order.CustomerName, &order.CustomerPhone, &order.StoreCode,
		&order.Subtotal, &order.ShippingFee, &order.Discount, &order.Total, &order.Status,
		&order.VerificationCode, &order.Verified, &order.CouponID, &order.CouponCode, &order.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_number", number).Msg("order not found for verification")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_number", number).Msg("failed to verify order")
		return nil, fmt.Errorf("failed to verify order: %w", err)
	}

	return &order, nil
}
