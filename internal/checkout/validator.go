package checkout

import (
	"context"

	"flavorshop/internal/model"
	"flavorshop/internal/repository"

	"github.com/rs/zerolog"
)

// Validator resolves submitted cart lines against the live catalogue and
// prices them server-side. Client-submitted prices are never trusted.
type Validator interface {
	// Resolve turns cart lines into priced, catalogue-resolved order lines
	// with frozen names and unit prices, and returns the cart subtotal.
	// It performs no writes.
	Resolve(ctx context.Context, lines []model.CartLineRequest) ([]model.OrderLine, int, error)
}

// validator implements Validator against the catalog repository.
type validator struct {
	catalog repository.CatalogRepository
	logger  zerolog.Logger
}

// NewValidator creates a new cart validator.
func NewValidator(catalog repository.CatalogRepository, logger zerolog.Logger) Validator {
	return &validator{
		catalog: catalog,
		logger:  logger.With().Str("component", "cart-validator").Logger(),
	}
}

// Resolve turns cart lines into priced order lines.
func (v *validator) Resolve(ctx context.Context, lines []model.CartLineRequest) ([]model.OrderLine, int, error) {
	resolved := make([]model.OrderLine, 0, len(lines))
	subtotal := 0

	for i, line := range lines {
		if line.Quantity <= 0 {
			v.logger.Warn().
				Int("line_index", i).
				Int("quantity", line.Quantity).
				Msg("invalid quantity")
			return nil, 0, model.ErrInvalidQuantity
		}

		// A line references either a normal product or an up-sell product,
		// never both and never neither.
		switch {
		case line.ProductID != nil && line.UpsellID == nil:
			out, err := v.resolveProductLine(ctx, line)
			if err != nil {
				return nil, 0, err
			}
			resolved = append(resolved, *out)
			subtotal += out.Subtotal

		case line.UpsellID != nil && line.ProductID == nil && line.FlavorName == nil:
			out, err := v.resolveUpsellLine(ctx, line)
			if err != nil {
				return nil, 0, err
			}
			resolved = append(resolved, *out)
			subtotal += out.Subtotal

		default:
			v.logger.Warn().Int("line_index", i).Msg("malformed cart line")
			return nil, 0, model.ErrInvalidLineFormat
		}
	}

	return resolved, subtotal, nil
}

// resolveProductLine resolves a normal product line, synthesizing the
// default flavor when none is named.
func (v *validator) resolveProductLine(ctx context.Context, line model.CartLineRequest) (*model.OrderLine, error) {
	product, err := v.catalog.GetProduct(ctx, *line.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	flavorName := model.DefaultFlavorName
	if line.FlavorName != nil && *line.FlavorName != "" {
		flavorName = *line.FlavorName
	}

	flavor, err := v.catalog.GetFlavor(ctx, product.ID, flavorName)
	if err != nil {
		return nil, err
	}
	if flavor == nil {
		active, listErr := v.catalog.ListActiveFlavorNames(ctx, product.ID)
		if listErr != nil {
			v.logger.Warn().Err(listErr).
				Str("product_id", product.ID.String()).
				Msg("failed to list active flavors for diagnostics")
		}
		v.logger.Warn().
			Str("product_id", product.ID.String()).
			Str("flavor", flavorName).
			Strs("active_flavors", active).
			Msg("flavor not found")
		return nil, model.NewFlavorNotFoundError(flavorName, active)
	}

	unitPrice := flavor.UnitPrice(product)
	name := flavorName
	productID := product.ID

	return &model.OrderLine{
		ProductID:   &productID,
		FlavorName:  &name,
		ProductName: product.Name,
		UnitPrice:   unitPrice,
		Quantity:    line.Quantity,
		Subtotal:    unitPrice * line.Quantity,
	}, nil
}

// resolveUpsellLine resolves an up-sell product line.
func (v *validator) resolveUpsellLine(ctx context.Context, line model.CartLineRequest) (*model.OrderLine, error) {
	upsell, err := v.catalog.GetUpsell(ctx, *line.UpsellID)
	if err != nil {
		return nil, err
	}
	if upsell == nil {
		return nil, model.ErrUpsellNotFound
	}

	upsellID := upsell.ID

	return &model.OrderLine{
		UpsellID:    &upsellID,
		ProductName: upsell.Name,
		UnitPrice:   upsell.Price,
		Quantity:    line.Quantity,
		Subtotal:    upsell.Price * line.Quantity,
	}, nil
}
