package service

import (
	"context"
	"fmt"

	"flavorshop/internal/model"
	"flavorshop/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	catalog repository.CatalogRepository
	logger  zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(catalog repository.CatalogRepository, logger zerolog.Logger) ProductService {
	return &productService{
		catalog: catalog,
		logger:  logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves all active products with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.catalog.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a single active product with its flavors.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.ProductDetail, error) {
	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, nil
	}

	flavors, err := s.catalog.ListFlavors(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get flavors")
		return nil, fmt.Errorf("failed to get flavors: %w", err)
	}

	return &model.ProductDetail{
		Product: *product,
		Flavors: flavors,
	}, nil
}
