package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// stockRepository implements the StockRepository interface using PostgreSQL.
//
// The decrement is a single conditional UPDATE: the WHERE clause requires
// the current stock to cover the requested amount, so the row count is the
// sole success signal. A read-then-write sequence would reintroduce the
// oversell race and is never used here.
type stockRepository struct {
	logger zerolog.Logger
}

// NewStockRepository creates a new PostgreSQL-backed stock repository.
// All operations run on a caller-provided transaction, so no pool is held.
func NewStockRepository(logger zerolog.Logger) StockRepository {
	return &stockRepository{
		logger: logger.With().Str("repository", "stock").Logger(),
	}
}

// DecrementFlavorStock atomically decrements a flavor's stock by amount
// when enough stock remains.
func (r *stockRepository) DecrementFlavorStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, name string, amount int) (bool, int, error) {
	query := `
		UPDATE flavors
		SET stock = stock - $3
		WHERE product_id = $1 AND name = $2 AND active AND stock >= $3
		RETURNING stock
	`

	var remaining int
	err := tx.QueryRow(ctx, query, productID, name, amount).Scan(&remaining)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Condition did not hold: either the flavor vanished or a
			// concurrent decrement took the remaining stock first.
			r.logger.Debug().
				Str("product_id", productID.String()).
				Str("flavor", name).
				Int("amount", amount).
				Msg("flavor stock decrement rejected")
			return false, 0, nil
		}
		r.logger.Error().Err(err).
			Str("product_id", productID.String()).
			Str("flavor", name).
			Msg("failed to decrement flavor stock")
		return false, 0, fmt.Errorf("failed to decrement flavor stock: %w", err)
	}

	r.logger.Debug().
		Str("product_id", productID.String()).
		Str("flavor", name).
		Int("amount", amount).
		Int("remaining", remaining).
		Msg("flavor stock decremented")

	return true, remaining, nil
}

// IncrementFlavorStock adds amount back to a flavor's stock.
func (r *stockRepository) IncrementFlavorStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, name string, amount int) error {
	query := `
		UPDATE flavors
		SET stock = stock + $3
		WHERE product_id = $1 AND name = $2
	`

	tag, err := tx.Exec(ctx, query, productID, name, amount)
	if err != nil {
		r.logger.Error().Err(err).
			Str("product_id", productID.String()).
			Str("flavor", name).
			Msg("failed to increment flavor stock")
		return fmt.Errorf("failed to increment flavor stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("flavor %q of product %s not found for stock compensation", name, productID)
	}

	return nil
}

// DecrementUpsellStock atomically decrements an up-sell product's stock by
// amount when enough stock remains.
func (r *stockRepository) DecrementUpsellStock(ctx context.Context, tx pgx.Tx, upsellID uuid.UUID, amount int) (bool, int, error) {
	query := `
		UPDATE upsell_products
		SET stock = stock - $2
		WHERE id = $1 AND active AND stock >= $2
		RETURNING stock
	`

	var remaining int
	err := tx.QueryRow(ctx, query, upsellID, amount).Scan(&remaining)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().
				Str("upsell_id", upsellID.String()).
				Int("amount", amount).
				Msg("up-sell stock decrement rejected")
			return false, 0, nil
		}
		r.logger.Error().Err(err).
			Str("upsell_id", upsellID.String()).
			Msg("failed to decrement up-sell stock")
		return false, 0, fmt.Errorf("failed to decrement up-sell stock: %w", err)
	}

	return true, remaining, nil
}

// IncrementUpsellStock adds amount back to an up-sell product's stock.
func (r *stockRepository) IncrementUpsellStock(ctx context.Context, tx pgx.Tx, upsellID uuid.UUID, amount int) error {
	query := `
		UPDATE upsell_products
		SET stock = stock + $2
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, upsellID, amount)
	if err != nil {
		r.logger.Error().Err(err).
			Str("upsell_id", upsellID.String()).
			Msg("failed to increment up-sell stock")
		return fmt.Errorf("failed to increment up-sell stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("up-sell product %s not found for stock compensation", upsellID)
	}

	return nil
}
