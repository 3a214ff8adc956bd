package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"flavorshop/internal/config"
	"flavorshop/internal/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seeds a development database with a small catalogue and a few coupons
// covering every discount type. Connection settings come from the same
// environment variables the API server reads.
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Logger)
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := ensureSchema(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "schema setup failed: %v\n", err)
		os.Exit(1)
	}

	if err := seed(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("catalogue and coupons seeded")
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
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
	return err
}

func seed(ctx context.Context, pool *pgxpool.Pool) error {
	products := []struct {
		name      string
		basePrice int
		flavors   []struct {
			name  string
			price *int
			stock int
		}
	}{
		{
			name:      "Classic Lemonade",
			basePrice: 120,
			flavors: []struct {
				name  string
				price *int
				stock int
			}{
				{"standard", nil, 50},
				{"Passionfruit", intPtr(140), 30},
				{"Yuzu", intPtr(150), 20},
			},
		},
		{
			name:      "Cold Brew Coffee",
			basePrice: 160,
			flavors: []struct {
				name  string
				price *int
				stock int
			}{
				{"standard", nil, 40},
				{"Oat Latte", intPtr(190), 25},
			},
		},
	}

	for _, p := range products {
		productID := uuid.New()
		_, err := pool.Exec(ctx,
			"INSERT INTO products (id, name, base_price, active) VALUES ($1, $2, $3, TRUE)",
			productID, p.name, p.basePrice,
		)
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.name, err)
		}

		for _, f := range p.flavors {
			_, err := pool.Exec(ctx,
				"INSERT INTO flavors (id, product_id, name, price, stock, active) VALUES ($1, $2, $3, $4, $5, TRUE)",
				uuid.New(), productID, f.name, f.price, f.stock,
			)
			if err != nil {
				return fmt.Errorf("insert flavor %s/%s: %w", p.name, f.name, err)
			}
		}

		fmt.Printf("seeded %s with %d flavors\n", p.name, len(p.flavors))
	}

	upsells := []struct {
		name  string
		price int
		stock int
	}{
		{"Reusable Straw Set", 60, 100},
		{"Gift Wrap", 30, 200},
	}

	for _, u := range upsells {
		_, err := pool.Exec(ctx,
			"INSERT INTO upsell_products (id, name, price, stock, active) VALUES ($1, $2, $3, $4, TRUE)",
			uuid.New(), u.name, u.price, u.stock,
		)
		if err != nil {
			return fmt.Errorf("insert up-sell %s: %w", u.name, err)
		}
		fmt.Printf("seeded up-sell %s\n", u.name)
	}

	now := time.Now()
	coupons := []struct {
		code         string
		discountType string
		value        int
		minOrder     int
		maxDiscount  *int
		usageLimit   *int
		perUserLimit *int
	}{
		{"WELCOME10", "percentage", 10, 0, intPtr(100), nil, intPtr(1)},
		{"SAVE50", "fixed_amount", 50, 1000, nil, nil, nil},
		{"FREESHIP", "free_shipping", 0, 300, nil, nil, nil},
		{"FIRST100", "fixed_amount", 80, 500, nil, intPtr(100), intPtr(1)},
	}

	for _, c := range coupons {
		_, err := pool.Exec(ctx,
			`INSERT INTO coupons (id, code, discount_type, value, min_order_amount, max_discount,
			                      usage_limit, per_user_limit, valid_from, valid_until, active, used_count)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, 0)`,
			uuid.New(), c.code, c.discountType, c.value, c.minOrder, c.maxDiscount,
			c.usageLimit, c.perUserLimit, now, now.AddDate(0, 3, 0),
		)
		if err != nil {
			return fmt.Errorf("insert coupon %s: %w", c.code, err)
		}
		fmt.Printf("seeded coupon %s\n", c.code)
	}

	return nil
}

func intPtr(v int) *int { return &v }
