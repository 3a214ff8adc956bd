package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"flavorshop/internal/model"
	"flavorshop/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()
	stockRepo := repository.NewStockRepository(logger)
	ctx := context.Background()

	t.Run("Decrement succeeds when stock covers the amount", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		productID := InsertProduct(t, testDB.Pool, "Widget", 100)
		InsertFlavor(t, testDB.Pool, productID, "Red", nil, 5, true)

		tx, err := testDB.Pool.Begin(ctx)
		require.NoError(t, err)

		ok, remaining, err := stockRepo.DecrementFlavorStock(ctx, tx, productID, "Red", 3)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 2, remaining)

		require.NoError(t, tx.Commit(ctx))
		assert.Equal(t, 2, FlavorStock(t, testDB.Pool, productID, "Red"))
	})

	t.Run("Decrement fails when stock is short", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		productID := InsertProduct(t, testDB.Pool, "Widget", 100)
		InsertFlavor(t, testDB.Pool, productID, "Red", nil, 2, true)

		tx, err := testDB.Pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		ok, _, err := stockRepo.DecrementFlavorStock(ctx, tx, productID, "Red", 3)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, tx.Rollback(ctx))
		assert.Equal(t, 2, FlavorStock(t, testDB.Pool, productID, "Red"))
	})

	t.Run("Decrement fails for inactive flavor", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		productID := InsertProduct(t, testDB.Pool, "Widget", 100)
		InsertFlavor(t, testDB.Pool, productID, "Red", nil, 5, false)

		tx, err := testDB.Pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		ok, _, err := stockRepo.DecrementFlavorStock(ctx, tx, productID, "Red", 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Rollback restores the decremented stock", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		productID := InsertProduct(t, testDB.Pool, "Widget", 100)
		InsertFlavor(t, testDB.Pool, productID, "Red", nil, 5, true)

		tx, err := testDB.Pool.Begin(ctx)
		require.NoError(t, err)

		ok, _, err := stockRepo.DecrementFlavorStock(ctx, tx, productID, "Red", 4)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, tx.Rollback(ctx))
		assert.Equal(t, 5, FlavorStock(t, testDB.Pool, productID, "Red"))
	})

	t.Run("Concurrent decrements never oversell", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		productID := InsertProduct(t, testDB.Pool, "Widget", 100)
		InsertFlavor(t, testDB.Pool, productID, "Red", nil, 5, true)

		const attempts = 20
		var wg sync.WaitGroup
		results := make(chan bool, attempts)

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				tx, err := testDB.Pool.Begin(ctx)
				if err != nil {
					results <- false
					return
				}

				ok, _, err := stockRepo.DecrementFlavorStock(ctx, tx, productID, "Red", 1)
				if err != nil || !ok {
					tx.Rollback(ctx)
					results <- false
					return
				}

				if err := tx.Commit(ctx); err != nil {
					results <- false
					return
				}
				results <- true
			}()
		}

		wg.Wait()
		close(results)

		succeeded := 0
		for ok := range results {
			if ok {
				succeeded++
			}
		}

		assert.Equal(t, 5, succeeded)
		assert.Equal(t, 0, FlavorStock(t, testDB.Pool, productID, "Red"))
	})

	t.Run("Up-sell decrement uses its own stock pool", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		upsellID := InsertUpsell(t, testDB.Pool, "Gift Wrap", 30, 2)

		tx, err := testDB.Pool.Begin(ctx)
		require.NoError(t, err)

		ok, remaining, err := stockRepo.DecrementUpsellStock(ctx, tx, upsellID, 2)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 0, remaining)

		ok, _, err = stockRepo.DecrementUpsellStock(ctx, tx, upsellID, 1)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, tx.Rollback(ctx))
	})
}

func TestCouponRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()
	couponRepo := repository.NewCouponRepository(logger)
	ctx := context.Background()

	now := time.Now()
	validCoupon := func(code string) model.Coupon {
		return model.Coupon{
			Code:         code,
			DiscountType: model.DiscountFixedAmount,
			Value:        50,
			ValidFrom:    now.Add(-time.Hour),
			ValidUntil:   now.Add(time.Hour),
			Active:       true,
		}
	}

	t.Run("GetActiveByCode returns the coupon", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		couponID := InsertCoupon(t, testDB.Pool, validCoupon("SAVE50"))

		tx, err := testDB.Pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		c, err := couponRepo.GetActiveByCode(ctx, tx, "SAVE50")
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, couponID, c.ID)
		assert.Equal(t, model.DiscountFixedAmount, c.DiscountType)
	})

	t.Run("GetActiveByCode skips inactive coupons", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		c := validCoupon("DISABLED")
		c.Active = false
		InsertCoupon(t, testDB.Pool, c)

		tx, err := testDB.Pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		got, err := couponRepo.GetActiveByCode(ctx, tx, "DISABLED")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("IncrementUsedCount stops at the usage limit", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		limit := 2
		c := validCoupon("LIMITED")
		c.UsageLimit = &limit
		couponID := InsertCoupon(t, testDB.Pool, c)

		tx, err := testDB.Pool.Begin(ctx)
		require.NoError(t, err)

		for i := 0; i < limit; i++ {
			ok, err := couponRepo.IncrementUsedCount(ctx, tx, couponID)
			require.NoError(t, err)
			assert.True(t, ok)
		}

		ok, err := couponRepo.IncrementUsedCount(ctx, tx, couponID)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, tx.Commit(ctx))
		assert.Equal(t, 2, CouponUsedCount(t, testDB.Pool, couponID))
	})

	t.Run("Concurrent redemptions honour a limit of one", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		limit := 1
		c := validCoupon("ONCE")
		c.UsageLimit = &limit
		couponID := InsertCoupon(t, testDB.Pool, c)

		const attempts = 10
		var wg sync.WaitGroup
		results := make(chan bool, attempts)

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				tx, err := testDB.Pool.Begin(ctx)
				if err != nil {
					results <- false
					return
				}

				// The FOR UPDATE lookup serializes redemptions of the code.
				if _, err := couponRepo.GetActiveByCode(ctx, tx, "ONCE"); err != nil {
					tx.Rollback(ctx)
					results <- false
					return
				}

				ok, err := couponRepo.IncrementUsedCount(ctx, tx, couponID)
				if err != nil || !ok {
					tx.Rollback(ctx)
					results <- false
					return
				}

				if err := tx.Commit(ctx); err != nil {
					results <- false
					return
				}
				results <- true
			}()
		}

		wg.Wait()
		close(results)

		succeeded := 0
		for ok := range results {
			if ok {
				succeeded++
			}
		}

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 1, CouponUsedCount(t, testDB.Pool, couponID))
	})

	t.Run("CountCustomerUsage counts per phone", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		couponID := InsertCoupon(t, testDB.Pool, validCoupon("PERUSER"))

		orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
		tx, err := testDB.Pool.Begin(ctx)
		require.NoError(t, err)

		order := sampleOrder("FS260601120000001")
		require.NoError(t, orderRepo.InsertOrder(ctx, tx, order))

		usage := &model.CouponUsage{
			ID:            uuid.New(),
			CouponID:      couponID,
			OrderID:       order.ID,
			CustomerPhone: "0912345678",
			Discount:      50,
			CreatedAt:     time.Now(),
		}
		require.NoError(t, couponRepo.InsertUsage(ctx, tx, usage))

		count, err := couponRepo.CountCustomerUsage(ctx, tx, couponID, "0912345678")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		count, err = couponRepo.CountCustomerUsage(ctx, tx, couponID, "0999999999")
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		require.NoError(t, tx.Rollback(ctx))
	})
}

func TestOrderRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	ctx := context.Background()

	t.Run("Insert and retrieve by number and code", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		productID := InsertProduct(t, testDB.Pool, "Widget", 100)

		tx, err := orderRepo.BeginTx(ctx)
		require.NoError(t, err)

		order := sampleOrder("FS260601120000001")
		require.NoError(t, orderRepo.InsertOrder(ctx, tx, order))

		flavorName := "Red"
		lines := []model.OrderLine{
			{
				ID:          uuid.New(),
				OrderID:     order.ID,
				ProductID:   &productID,
				FlavorName:  &flavorName,
				ProductName: "Widget",
				UnitPrice:   100,
				Quantity:    2,
				Subtotal:    200,
			},
		}
		require.NoError(t, orderRepo.InsertOrderLines(ctx, tx, lines))
		require.NoError(t, tx.Commit(ctx))

		got, gotLines, err := orderRepo.GetByNumber(ctx, order.OrderNumber, order.VerificationCode)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, order.CustomerName, got.CustomerName)
		assert.Equal(t, order.Total, got.Total)
		require.Len(t, gotLines, 1)
		assert.Equal(t, "Widget", gotLines[0].ProductName)
	})

	t.Run("Wrong verification code finds nothing", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		tx, err := orderRepo.BeginTx(ctx)
		require.NoError(t, err)
		order := sampleOrder("FS260601120000002")
		require.NoError(t, orderRepo.InsertOrder(ctx, tx, order))
		require.NoError(t, tx.Commit(ctx))

		got, _, err := orderRepo.GetByNumber(ctx, order.OrderNumber, "000000")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("OrderNumberExists", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		tx, err := orderRepo.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		order := sampleOrder("FS260601120000003")
		require.NoError(t, orderRepo.InsertOrder(ctx, tx, order))

		exists, err := orderRepo.OrderNumberExists(ctx, tx, order.OrderNumber)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = orderRepo.OrderNumberExists(ctx, tx, "FS999999999999999")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Duplicate order number surfaces as a conflict", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		tx, err := orderRepo.BeginTx(ctx)
		require.NoError(t, err)
		first := sampleOrder("FS260601120000004")
		require.NoError(t, orderRepo.InsertOrder(ctx, tx, first))
		require.NoError(t, tx.Commit(ctx))

		tx, err = orderRepo.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		duplicate := sampleOrder("FS260601120000004")
		err = orderRepo.InsertOrder(ctx, tx, duplicate)
		require.Error(t, err)
		assert.True(t, repository.IsOrderNumberConflict(err))
	})

	t.Run("MarkVerified flips the flag", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		tx, err := orderRepo.BeginTx(ctx)
		require.NoError(t, err)
		order := sampleOrder("FS260601120000005")
		require.NoError(t, orderRepo.InsertOrder(ctx, tx, order))
		require.NoError(t, tx.Commit(ctx))

		verified, err := orderRepo.MarkVerified(ctx, order.OrderNumber, order.VerificationCode)
		require.NoError(t, err)
		require.NotNil(t, verified)
		assert.True(t, verified.Verified)

		missing, err := orderRepo.MarkVerified(ctx, order.OrderNumber, "000000")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

// sampleOrder builds a minimal persistable order.
func sampleOrder(number string) *model.Order {
	return &model.Order{
		ID:               uuid.New(),
		OrderNumber:      number,
		CustomerName:     "Alice",
		CustomerPhone:    "0912345678",
		StoreCode:        "STORE-42",
		Subtotal:         200,
		ShippingFee:      60,
		Discount:         0,
		Total:            260,
		Status:           model.StatusPending,
		VerificationCode: "123456",
		CreatedAt:        time.Now(),
	}
}
