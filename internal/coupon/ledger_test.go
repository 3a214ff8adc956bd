package coupon

import (
	"context"
	"testing"
	"time"

	"flavorshop/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCouponRepository is a mock implementation of CouponRepository.
type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) GetActiveByCode(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error) {
	args := m.Called(ctx, tx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) CountCustomerUsage(ctx context.Context, tx pgx.Tx, couponID uuid.UUID, phone string) (int, error) {
	args := m.Called(ctx, tx, couponID, phone)
	return args.Int(0), args.Error(1)
}

func (m *MockCouponRepository) IncrementUsedCount(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tx, couponID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCouponRepository) InsertUsage(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage) error {
	args := m.Called(ctx, tx, usage)
	return args.Error(0)
}

func intPtr(n int) *int { return &n }

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestLedger(repo *MockCouponRepository) *ledger {
	return &ledger{
		repo:   repo,
		logger: zerolog.Nop(),
		now:    func() time.Time { return testNow },
	}
}

func validCoupon() *model.Coupon {
	return &model.Coupon{
		ID:             uuid.New(),
		Code:           "SAVE50",
		DiscountType:   model.DiscountFixedAmount,
		Value:          50,
		MinOrderAmount: 1000,
		ValidFrom:      testNow.Add(-24 * time.Hour),
		ValidUntil:     testNow.Add(24 * time.Hour),
		Active:         true,
	}
}

func TestLedger_Apply_FixedAmount(t *testing.T) {
	ctx := context.Background()
	c := validCoupon()

	mockRepo := new(MockCouponRepository)
	mockRepo.On("GetActiveByCode", ctx, nil, "SAVE50").Return(c, nil)

	l := newTestLedger(mockRepo)

	redemption, err := l.Apply(ctx, nil, "SAVE50", "0912345678", 1500)

	require.NoError(t, err)
	assert.Equal(t, 50, redemption.Discount)
	assert.False(t, redemption.FreeShipping)
	mockRepo.AssertExpectations(t)
}

func TestLedger_Apply_FixedAmountNeverExceedsSubtotal(t *testing.T) {
	ctx := context.Background()
	c := validCoupon()
	c.Value = 500
	c.MinOrderAmount = 0

	mockRepo := new(MockCouponRepository)
	mockRepo.On("GetActiveByCode", ctx, nil, "SAVE50").Return(c, nil)

	l := newTestLedger(mockRepo)

	redemption, err := l.Apply(ctx, nil, "SAVE50", "0912345678", 300)

	require.NoError(t, err)
	assert.Equal(t, 300, redemption.Discount)
}

func TestLedger_Apply_Percentage(t *testing.T) {
	tests := []struct {
		name        string
		value       int
		maxDiscount *int
		subtotal    int
		expected    int
	}{
		{name: "10 percent", value: 10, subtotal: 1000, expected: 100},
		{name: "Rounds half up", value: 15, subtotal: 990, expected: 149}, // 148.5 -> 149
		{name: "Capped at max discount", value: 50, maxDiscount: intPtr(200), subtotal: 1000, expected: 200},
		{name: "Under max discount", value: 10, maxDiscount: intPtr(200), subtotal: 1000, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c := validCoupon()
			c.DiscountType = model.DiscountPercentage
			c.Value = tt.value
			c.MaxDiscount = tt.maxDiscount
			c.MinOrderAmount = 0

			mockRepo := new(MockCouponRepository)
			mockRepo.On("GetActiveByCode", ctx, nil, "SAVE50").Return(c, nil)

			l := newTestLedger(mockRepo)

			redemption, err := l.Apply(ctx, nil, "SAVE50", "0912345678", tt.subtotal)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, redemption.Discount)
		})
	}
}

func TestLedger_Apply_FreeShipping(t *testing.T) {
	ctx := context.Background()
	c := validCoupon()
	c.DiscountType = model.DiscountFreeShip
	c.MinOrderAmount = 0

	mockRepo := new(MockCouponRepository)
	mockRepo.On("GetActiveByCode", ctx, nil, "SAVE50").Return(c, nil)

	l := newTestLedger(mockRepo)

	redemption, err := l.Apply(ctx, nil, "SAVE50", "0912345678", 500)

	require.NoError(t, err)
	assert.Equal(t, 0, redemption.Discount)
	assert.True(t, redemption.FreeShipping)
}

func TestLedger_Apply_ConstraintOrdering(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		mutate      func(*model.Coupon)
		usedByUser  int
		subtotal    int
		expectedErr *model.DomainError
	}{
		{
			name:        "Not found",
			mutate:      nil, // repo returns nil
			subtotal:    1500,
			expectedErr: model.ErrCouponNotFound,
		},
		{
			name:        "Not yet valid",
			mutate:      func(c *model.Coupon) { c.ValidFrom = testNow.Add(time.Hour) },
			subtotal:    1500,
			expectedErr: model.ErrCouponExpired,
		},
		{
			name:        "Expired",
			mutate:      func(c *model.Coupon) { c.ValidUntil = testNow.Add(-time.Hour) },
			subtotal:    1500,
			expectedErr: model.ErrCouponExpired,
		},
		{
			name:        "Minimum not met",
			mutate:      func(c *model.Coupon) {},
			subtotal:    500,
			expectedErr: model.ErrMinimumNotMet,
		},
		{
			name: "Usage limit reached",
			mutate: func(c *model.Coupon) {
				c.UsageLimit = intPtr(10)
				c.UsedCount = 10
			},
			subtotal:    1500,
			expectedErr: model.ErrUsageLimitReached,
		},
		{
			name: "Per-user limit reached",
			mutate: func(c *model.Coupon) {
				c.PerUserLimit = intPtr(1)
			},
			usedByUser:  1,
			subtotal:    1500,
			expectedErr: model.ErrPerUserLimitReached,
		},
		{
			name: "Expiry checked before minimum",
			mutate: func(c *model.Coupon) {
				c.ValidUntil = testNow.Add(-time.Hour)
			},
			subtotal:    500, // would also fail minimum
			expectedErr: model.ErrCouponExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockCouponRepository)

			if tt.mutate == nil {
				mockRepo.On("GetActiveByCode", ctx, nil, "SAVE50").Return(nil, nil)
			} else {
				c := validCoupon()
				tt.mutate(c)
				mockRepo.On("GetActiveByCode", ctx, nil, "SAVE50").Return(c, nil)
				if c.PerUserLimit != nil {
					mockRepo.On("CountCustomerUsage", ctx, nil, c.ID, "0912345678").Return(tt.usedByUser, nil)
				}
			}

			l := newTestLedger(mockRepo)

			_, err := l.Apply(ctx, nil, "SAVE50", "0912345678", tt.subtotal)

			require.Error(t, err)
			assert.Equal(t, tt.expectedErr, err)
		})
	}
}

func TestLedger_Apply_PerUserLimitUnderLimit(t *testing.T) {
	ctx := context.Background()
	c := validCoupon()
	c.PerUserLimit = intPtr(2)

	mockRepo := new(MockCouponRepository)
	mockRepo.On("GetActiveByCode", ctx, nil, "SAVE50").Return(c, nil)
	mockRepo.On("CountCustomerUsage", ctx, nil, c.ID, "0912345678").Return(1, nil)

	l := newTestLedger(mockRepo)

	redemption, err := l.Apply(ctx, nil, "SAVE50", "0912345678", 1500)

	require.NoError(t, err)
	assert.Equal(t, 50, redemption.Discount)
}

func TestLedger_RecordUsage(t *testing.T) {
	ctx := context.Background()
	c := validCoupon()
	orderID := uuid.New()

	mockRepo := new(MockCouponRepository)
	mockRepo.On("IncrementUsedCount", ctx, nil, c.ID).Return(true, nil)
	mockRepo.On("InsertUsage", ctx, nil, mock.MatchedBy(func(u *model.CouponUsage) bool {
		return u.CouponID == c.ID && u.OrderID == orderID &&
			u.CustomerPhone == "0912345678" && u.Discount == 50
	})).Return(nil)

	l := newTestLedger(mockRepo)

	err := l.RecordUsage(ctx, nil, &Redemption{Coupon: c, Discount: 50}, orderID, "0912345678")

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestLedger_RecordUsage_LimitRace(t *testing.T) {
	ctx := context.Background()
	c := validCoupon()

	mockRepo := new(MockCouponRepository)
	mockRepo.On("IncrementUsedCount", ctx, nil, c.ID).Return(false, nil)

	l := newTestLedger(mockRepo)

	err := l.RecordUsage(ctx, nil, &Redemption{Coupon: c, Discount: 50}, uuid.New(), "0912345678")

	require.Error(t, err)
	assert.Equal(t, model.ErrUsageLimitReached, err)
	mockRepo.AssertNotCalled(t, "InsertUsage")
}
