package repository

import (
	"context"

	"flavorshop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CatalogRepository defines read access to products, flavors and up-sell
// products. All lookups filter on the active flag.
type CatalogRepository interface {
	// GetAll retrieves all active products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetProduct retrieves a single active product by its ID.
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetFlavor retrieves an active flavor by (product id, flavor name).
	GetFlavor(ctx context.Context, productID uuid.UUID, name string) (*model.Flavor, error)

	// ListActiveFlavorNames returns the names of all active flavors of a
	// product, for diagnostics when a requested flavor is missing.
	ListActiveFlavorNames(ctx context.Context, productID uuid.UUID) ([]string, error)

	// ListFlavors retrieves all active flavors of a product.
	ListFlavors(ctx context.Context, productID uuid.UUID) ([]model.Flavor, error)

	// GetUpsell retrieves an active up-sell product by its ID.
	GetUpsell(ctx context.Context, id uuid.UUID) (*model.UpsellProduct, error)
}

// StockRepository is the stock ledger. The conditional decrement is the
// sole mutation primitive: it succeeds only when the current stock covers
// the requested amount, and the row count decides success.
type StockRepository interface {
	// DecrementFlavorStock atomically decrements the stock of a flavor by
	// amount if enough stock remains. Returns ok=false when the condition
	// did not hold, and the remaining stock after a successful decrement.
	DecrementFlavorStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, name string, amount int) (ok bool, remaining int, err error)

	// IncrementFlavorStock compensates a decrement. Only used by the
	// corruption guard; normal failure paths rely on transaction rollback.
	IncrementFlavorStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, name string, amount int) error

	// DecrementUpsellStock is the conditional decrement for up-sell products.
	DecrementUpsellStock(ctx context.Context, tx pgx.Tx, upsellID uuid.UUID, amount int) (ok bool, remaining int, err error)

	// IncrementUpsellStock compensates an up-sell decrement.
	IncrementUpsellStock(ctx context.Context, tx pgx.Tx, upsellID uuid.UUID, amount int) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// OrderNumberExists reports whether an order number is already taken.
	OrderNumberExists(ctx context.Context, tx pgx.Tx, number string) (bool, error)

	// InsertOrder inserts a new order within the provided transaction.
	// An order-number collision surfaces as a unique violation; callers
	// detect it with IsOrderNumberConflict, regenerate and retry once.
	InsertOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// InsertOrderLines inserts the order's line items within the provided transaction.
	InsertOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error

	// GetByNumber retrieves an order and its lines by order number and
	// verification code. Returns (nil, nil, nil) when no order matches.
	GetByNumber(ctx context.Context, number, verificationCode string) (*model.Order, []model.OrderLine, error)

	// MarkVerified flips the verified flag on a matching order and returns
	// it, or (nil, nil) when no order matches.
	MarkVerified(ctx context.Context, number, verificationCode string) (*model.Order, error)
}

// CouponRepository defines coupon ledger data access. All mutating
// operations run on the caller's transaction so a redemption is never
// visible without its order.
type CouponRepository interface {
	// GetActiveByCode retrieves an active coupon by code, locking the row
	// for the remainder of the transaction.
	GetActiveByCode(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error)

	// CountCustomerUsage counts prior redemptions of a coupon by a customer phone.
	CountCustomerUsage(ctx context.Context, tx pgx.Tx, couponID uuid.UUID, phone string) (int, error)

	// IncrementUsedCount bumps used_count, guarded by usage_limit when one
	// is set. Returns ok=false when the limit would be exceeded.
	IncrementUsedCount(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) (bool, error)

	// InsertUsage records a redemption row within the provided transaction.
	InsertUsage(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage) error
}
