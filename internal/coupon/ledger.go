package coupon

import (
	"context"
	"fmt"
	"time"

	"flavorshop/internal/model"
	"flavorshop/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Redemption is the outcome of a successful coupon application, held by
// the caller until the order commit records it.
type Redemption struct {
	Coupon       *model.Coupon
	Discount     int
	FreeShipping bool
}

// Ledger validates coupon codes and records their usage. Both operations
// run on the caller's transaction: a coupon is never recorded as used if
// the order commit subsequently fails.
type Ledger interface {
	// Apply validates code for the given customer and subtotal and
	// computes the discount. Constraints are checked in order (lookup,
	// validity window, minimum, global limit, per-user limit) and the
	// first failure wins.
	Apply(ctx context.Context, tx pgx.Tx, code, customerPhone string, subtotal int) (*Redemption, error)

	// RecordUsage increments the coupon's used count and inserts the usage
	// row tying the redemption to the order.
	RecordUsage(ctx context.Context, tx pgx.Tx, redemption *Redemption, orderID uuid.UUID, customerPhone string) error
}

// ledger implements Ledger against the coupon repository.
type ledger struct {
	repo   repository.CouponRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewLedger creates a new coupon ledger.
func NewLedger(repo repository.CouponRepository, logger zerolog.Logger) Ledger {
	return &ledger{
		repo:   repo,
		logger: logger.With().Str("component", "coupon-ledger").Logger(),
		now:    time.Now,
	}
}

// Apply validates a coupon code and computes its discount.
func (l *ledger) Apply(ctx context.Context, tx pgx.Tx, code, customerPhone string, subtotal int) (*Redemption, error) {
	c, err := l.repo.GetActiveByCode(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, model.ErrCouponNotFound
	}

	now := l.now()
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		l.logger.Debug().
			Str("code", code).
			Time("valid_from", c.ValidFrom).
			Time("valid_until", c.ValidUntil).
			Msg("coupon outside validity window")
		return nil, model.ErrCouponExpired
	}

	if subtotal < c.MinOrderAmount {
		l.logger.Debug().
			Str("code", code).
			Int("subtotal", subtotal).
			Int("min_order_amount", c.MinOrderAmount).
			Msg("coupon minimum not met")
		return nil, model.ErrMinimumNotMet
	}

	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		l.logger.Debug().
			Str("code", code).
			Int("used_count", c.UsedCount).
			Int("usage_limit", *c.UsageLimit).
			Msg("coupon usage limit reached")
		return nil, model.ErrUsageLimitReached
	}

	if c.PerUserLimit != nil {
		used, err := l.repo.CountCustomerUsage(ctx, tx, c.ID, customerPhone)
		if err != nil {
			return nil, err
		}
		if used >= *c.PerUserLimit {
			l.logger.Debug().
				Str("code", code).
				Int("used", used).
				Int("per_user_limit", *c.PerUserLimit).
				Msg("coupon per-user limit reached")
			return nil, model.ErrPerUserLimitReached
		}
	}

	discount, freeShipping, err := computeDiscount(c, subtotal)
	if err != nil {
		return nil, err
	}

	l.logger.Debug().
		Str("code", code).
		Int("discount", discount).
		Bool("free_shipping", freeShipping).
		Msg("coupon applied")

	return &Redemption{
		Coupon:       c,
		Discount:     discount,
		FreeShipping: freeShipping,
	}, nil
}

// RecordUsage increments the coupon's used count and inserts the usage row.
func (l *ledger) RecordUsage(ctx context.Context, tx pgx.Tx, redemption *Redemption, orderID uuid.UUID, customerPhone string) error {
	ok, err := l.repo.IncrementUsedCount(ctx, tx, redemption.Coupon.ID)
	if err != nil {
		return err
	}
	if !ok {
		// Another transaction took the last remaining slot between our
		// locked read and this update.
		return model.ErrUsageLimitReached
	}

	usage := &model.CouponUsage{
		ID:            uuid.New(),
		CouponID:      redemption.Coupon.ID,
		OrderID:       orderID,
		CustomerPhone: customerPhone,
		Discount:      redemption.Discount,
		CreatedAt:     l.now(),
	}

	return l.repo.InsertUsage(ctx, tx, usage)
}

// computeDiscount dispatches on the coupon's discount type. Percentage
// discounts round half up and respect max_discount; fixed discounts never
// exceed the subtotal; free shipping contributes no monetary discount.
func computeDiscount(c *model.Coupon, subtotal int) (int, bool, error) {
	switch c.DiscountType {
	case model.DiscountPercentage:
		discount := (subtotal*c.Value + 50) / 100
		if c.MaxDiscount != nil && discount > *c.MaxDiscount {
			discount = *c.MaxDiscount
		}
		return discount, false, nil

	case model.DiscountFixedAmount:
		discount := c.Value
		if discount > subtotal {
			discount = subtotal
		}
		return discount, false, nil

	case model.DiscountFreeShip:
		return 0, true, nil

	default:
		return 0, false, fmt.Errorf("unknown discount type %q", c.DiscountType)
	}
}
