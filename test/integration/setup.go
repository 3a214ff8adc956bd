package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"flavorshop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	// The concurrency tests fire many transactions at once.
	poolConfig.MaxConns = 25

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			base_price INTEGER NOT NULL CHECK (base_price >= 0),
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS flavors (
			id UUID PRIMARY KEY,
			product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL,
			price INTEGER CHECK (price >= 0),
			stock INTEGER NOT NULL CHECK (stock >= 0),
			active BOOLEAN NOT NULL DEFAULT TRUE,
			UNIQUE (product_id, name)
		);

		CREATE TABLE IF NOT EXISTS upsell_products (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			price INTEGER NOT NULL CHECK (price >= 0),
			stock INTEGER NOT NULL CHECK (stock >= 0),
			active BOOLEAN NOT NULL DEFAULT TRUE
		);

		CREATE TABLE IF NOT EXISTS coupons (
			id UUID PRIMARY KEY,
			code VARCHAR(50) NOT NULL UNIQUE,
			discount_type VARCHAR(20) NOT NULL,
			value INTEGER NOT NULL,
			min_order_amount INTEGER NOT NULL DEFAULT 0,
			max_discount INTEGER,
			usage_limit INTEGER,
			per_user_limit INTEGER,
			valid_from TIMESTAMPTZ NOT NULL,
			valid_until TIMESTAMPTZ NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			used_count INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			order_number VARCHAR(30) NOT NULL,
			customer_name VARCHAR(255) NOT NULL,
			customer_phone VARCHAR(30) NOT NULL,
			store_code VARCHAR(30) NOT NULL,
			subtotal INTEGER NOT NULL,
			shipping_fee INTEGER NOT NULL,
			discount INTEGER NOT NULL DEFAULT 0,
			total INTEGER NOT NULL,
			status VARCHAR(20) NOT NULL,
			verification_code VARCHAR(10) NOT NULL,
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			coupon_id UUID REFERENCES coupons(id),
			coupon_code VARCHAR(50),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT orders_order_number_key UNIQUE (order_number)
		);

		CREATE TABLE IF NOT EXISTS order_lines (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id UUID REFERENCES products(id),
			flavor_name VARCHAR(100),
			upsell_id UUID REFERENCES upsell_products(id),
			product_name VARCHAR(255) NOT NULL,
			unit_price INTEGER NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			subtotal INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS coupon_usages (
			id UUID PRIMARY KEY,
			coupon_id UUID NOT NULL REFERENCES coupons(id),
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			customer_phone VARCHAR(30) NOT NULL,
			discount INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_order_lines_order_id ON order_lines(order_id);
		CREATE INDEX IF NOT EXISTS idx_coupon_usages_coupon_phone ON coupon_usages(coupon_id, customer_phone);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// InsertProduct seeds one active product and returns its ID.
func InsertProduct(t *testing.T, pool *pgxpool.Pool, name string, basePrice int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		"INSERT INTO products (id, name, base_price, active) VALUES ($1, $2, $3, TRUE)",
		id, name, basePrice,
	)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", name, err)
	}
	return id
}

// InsertFlavor seeds one flavor row. A nil price inherits the product's
// base price at checkout.
func InsertFlavor(t *testing.T, pool *pgxpool.Pool, productID uuid.UUID, name string, price *int, stock int, active bool) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		"INSERT INTO flavors (id, product_id, name, price, stock, active) VALUES ($1, $2, $3, $4, $5, $6)",
		id, productID, name, price, stock, active,
	)
	if err != nil {
		t.Fatalf("failed to seed flavor %s: %v", name, err)
	}
	return id
}

// InsertUpsell seeds one active up-sell product and returns its ID.
func InsertUpsell(t *testing.T, pool *pgxpool.Pool, name string, price, stock int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		"INSERT INTO upsell_products (id, name, price, stock, active) VALUES ($1, $2, $3, $4, TRUE)",
		id, name, price, stock,
	)
	if err != nil {
		t.Fatalf("failed to seed up-sell product %s: %v", name, err)
	}
	return id
}

// InsertCoupon seeds one coupon row. The caller controls all constraints
// through the model.
func InsertCoupon(t *testing.T, pool *pgxpool.Pool, c model.Coupon) uuid.UUID {
	t.Helper()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO coupons (id, code, discount_type, value, min_order_amount, max_discount,
		                      usage_limit, per_user_limit, valid_from, valid_until, active, used_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.Code, c.DiscountType, c.Value, c.MinOrderAmount, c.MaxDiscount,
		c.UsageLimit, c.PerUserLimit, c.ValidFrom, c.ValidUntil, c.Active, c.UsedCount,
	)
	if err != nil {
		t.Fatalf("failed to seed coupon %s: %v", c.Code, err)
	}
	return c.ID
}

// FlavorStock reads the current stock counter of a flavor.
func FlavorStock(t *testing.T, pool *pgxpool.Pool, productID uuid.UUID, name string) int {
	t.Helper()

	var stock int
	err := pool.QueryRow(context.Background(),
		"SELECT stock FROM flavors WHERE product_id = $1 AND name = $2",
		productID, name,
	).Scan(&stock)
	if err != nil {
		t.Fatalf("failed to read flavor stock: %v", err)
	}
	return stock
}

// CouponUsedCount reads the current used_count of a coupon.
func CouponUsedCount(t *testing.T, pool *pgxpool.Pool, couponID uuid.UUID) int {
	t.Helper()

	var count int
	err := pool.QueryRow(context.Background(),
		"SELECT used_count FROM coupons WHERE id = $1", couponID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("failed to read coupon used count: %v", err)
	}
	return count
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"coupon_usages", "order_lines", "orders", "coupons", "flavors", "upsell_products", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
