package repository

import (
	"context"
	"fmt"

	"flavorshop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// catalogRepository implements the CatalogRepository interface using PostgreSQL.
type catalogRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCatalogRepository creates a new PostgreSQL-backed catalog repository.
func NewCatalogRepository(pool *pgxpool.Pool, logger zerolog.Logger) CatalogRepository {
	return &catalogRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "catalog").Logger(),
	}
}

// GetAll retrieves all active products with pagination support.
func (r *catalogRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `
		SELECT id, name, base_price, active, created_at
		FROM products
		WHERE active
		ORDER BY name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		err := rows.Scan(&p.ID, &p.Name, &p.BasePrice, &p.Active, &p.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetProduct retrieves a single active product by its ID.
func (r *catalogRepository) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `
		SELECT id, name, base_price, active, created_at
		FROM products
		WHERE id = $1 AND active
	`

	var p model.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.BasePrice, &p.Active, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetFlavor retrieves an active flavor by (product id, flavor name).
func (r *catalogRepository) GetFlavor(ctx context.Context, productID uuid.UUID, name string) (*model.Flavor, error) {
	query := `
		SELECT id, product_id, name, price, stock, active
		FROM flavors
		WHERE product_id = $1 AND name = $2 AND active
	`

	var f model.Flavor
	err := r.pool.QueryRow(ctx, query, productID, name).Scan(
		&f.ID, &f.ProductID, &f.Name, &f.Price, &f.Stock, &f.Active,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().
				Str("product_id", productID.String()).
				Str("flavor", name).
				Msg("flavor not found")
			return nil, nil
		}
		r.logger.Error().Err(err).
			Str("product_id", productID.String()).
			Str("flavor", name).
			Msg("failed to query flavor")
		return nil, fmt.Errorf("failed to query flavor: %w", err)
	}

	return &f, nil
}

// ListActiveFlavorNames returns the names of all active flavors of a product.
func (r *catalogRepository) ListActiveFlavorNames(ctx context.Context, productID uuid.UUID) ([]string, error) {
	query := `
		SELECT name
		FROM flavors
		WHERE product_id = $1 AND active
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to query flavor names")
		return nil, fmt.Errorf("failed to query flavor names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan flavor name")
			return nil, fmt.Errorf("failed to scan flavor name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating flavor names")
		return nil, fmt.Errorf("error iterating flavor names: %w", err)
	}

	return names, nil
}

// ListFlavors retrieves all active flavors of a product.
func (r *catalogRepository) ListFlavors(ctx context.Context, productID uuid.UUID) ([]model.Flavor, error) {
	query := `
		SELECT id, product_id, name, price, stock, active
		FROM flavors
		WHERE product_id = $1 AND active
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to query flavors")
		return nil, fmt.Errorf("failed to query flavors: %w", err)
	}
	defer rows.Close()

	var flavors []model.Flavor
	for rows.Next() {
		var f model.Flavor
		err := rows.Scan(&f.ID, &f.ProductID, &f.Name, &f.Price, &f.Stock, &f.Active)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan flavor row")
			return nil, fmt.Errorf("failed to scan flavor: %w", err)
		}
		flavors = append(flavors, f)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating flavor rows")
		return nil, fmt.Errorf("error iterating flavors: %w", err)
	}

	return flavors, nil
}

// GetUpsell retrieves an active up-sell product by its ID.
func (r *catalogRepository) GetUpsell(ctx context.Context, id uuid.UUID) (*model.UpsellProduct, error) {
	query := `
		SELECT id, name, price, stock, active
		FROM upsell_products
		WHERE id = $1 AND active
	`

	var u model.UpsellProduct
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Price, &u.Stock, &u.Active)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("upsell_id", id.String()).Msg("up-sell product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("upsell_id", id.String()).Msg("failed to query up-sell product")
		return nil, fmt.Errorf("failed to query up-sell product: %w", err)
	}

	return &u, nil
}
