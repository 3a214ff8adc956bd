package repository

import (
	"context"
	"fmt"

	"flavorshop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// couponRepository implements the CouponRepository interface using PostgreSQL.
//
// Every method runs on the caller's transaction. The row lock taken by
// GetActiveByCode serializes concurrent redemptions of the same code, so
// the limit checks and the usage insert observe a consistent used_count.
type couponRepository struct {
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// GetActiveByCode retrieves an active coupon by code, locking the row for
// the remainder of the transaction.
func (r *couponRepository) GetActiveByCode(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error) {
	query := `
		SELECT id, code, discount_type, value, min_order_amount, max_discount,
		       usage_limit, per_user_limit, valid_from, valid_until, active, used_count
		FROM coupons
		WHERE code = $1 AND active
		FOR UPDATE
	`

	var c model.Coupon
	err := tx.QueryRow(ctx, query, code).Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.Value, &c.MinOrderAmount, &c.MaxDiscount,
		&c.UsageLimit, &c.PerUserLimit, &c.ValidFrom, &c.ValidUntil, &c.Active, &c.UsedCount,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("code", code).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

// CountCustomerUsage counts prior redemptions of a coupon by a customer phone.
func (r *couponRepository) CountCustomerUsage(ctx context.Context, tx pgx.Tx, couponID uuid.UUID, phone string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM coupon_usages
		WHERE coupon_id = $1 AND customer_phone = $2
	`

	var count int
	if err := tx.QueryRow(ctx, query, couponID, phone).Scan(&count); err != nil {
		r.logger.Error().Err(err).
			Str("coupon_id", couponID.String()).
			Msg("failed to count coupon usage")
		return 0, fmt.Errorf("failed to count coupon usage: %w", err)
	}

	return count, nil
}

// IncrementUsedCount bumps used_count, guarded by usage_limit when one is
// set. The row count decides success, mirroring the stock ledger.
func (r *couponRepository) IncrementUsedCount(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) (bool, error) {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	tag, err := tx.Exec(ctx, query, couponID)
	if err != nil {
		r.logger.Error().Err(err).
			Str("coupon_id", couponID.String()).
			Msg("failed to increment coupon used count")
		return false, fmt.Errorf("failed to increment coupon used count: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// InsertUsage records a redemption row within the provided transaction.
func (r *couponRepository) InsertUsage(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage) error {
	query := `
		INSERT INTO coupon_usages (id, coupon_id, order_id, customer_phone, discount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(ctx, query,
		usage.ID, usage.CouponID, usage.OrderID, usage.CustomerPhone, usage.Discount, usage.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).
			Str("coupon_id", usage.CouponID.String()).
			Str("order_id", usage.OrderID.String()).
			Msg("failed to insert coupon usage")
		return fmt.Errorf("failed to insert coupon usage: %w", err)
	}

	r.logger.Debug().
		Str("coupon_id", usage.CouponID.String()).
		Str("order_id", usage.OrderID.String()).
		Int("discount", usage.Discount).
		Msg("coupon usage recorded")

	return nil
}
