package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"flavorshop/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderService is a mock implementation of service.OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.OrderResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderResponse), args.Error(1)
}

func (m *MockOrderService) VerifyOrder(ctx context.Context, number, verificationCode string) (*model.VerifyOrderResponse, error) {
	args := m.Called(ctx, number, verificationCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerifyOrderResponse), args.Error(1)
}

func (m *MockOrderService) GetByNumber(ctx context.Context, number, verificationCode string) (*model.OrderResponse, error) {
	args := m.Called(ctx, number, verificationCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderResponse), args.Error(1)
}

func createOrderBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"customerName":  "Alice",
		"customerPhone": "0912345678",
		"storeCode":     "STORE-42",
		"lines": []map[string]interface{}{
			{"productId": "0d9884f2-5d29-4b73-a2a0-6fbf1f9e0c5a", "flavorName": "Red", "quantity": 1},
		},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestOrderHandler_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockOrderService)
		h := NewOrderHandler(mockService, zerolog.Nop())

		resp := &model.OrderResponse{
			OrderNumber:      "FS260601120000123",
			CustomerName:     "Alice",
			Subtotal:         100,
			ShippingFee:      60,
			Total:            160,
			Status:           model.StatusPending,
			VerificationCode: "123456",
		}
		mockService.On("CreateOrder", mock.Anything, mock.AnythingOfType("*model.CreateOrderRequest")).
			Return(resp, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/orders", createOrderBody(t))
		w := httptest.NewRecorder()

		h.Create(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var got model.OrderResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, "FS260601120000123", got.OrderNumber)
		assert.Equal(t, "123456", got.VerificationCode)
		mockService.AssertExpectations(t)
	})

	t.Run("Invalid JSON body", func(t *testing.T) {
		mockService := new(MockOrderService)
		h := NewOrderHandler(mockService, zerolog.Nop())

		req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{not json"))
		w := httptest.NewRecorder()

		h.Create(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "CreateOrder")
	})

	t.Run("Validation error from service", func(t *testing.T) {
		mockService := new(MockOrderService)
		h := NewOrderHandler(mockService, zerolog.Nop())

		mockService.On("CreateOrder", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("customer name is required"))

		req := httptest.NewRequest(http.MethodPost, "/api/orders", createOrderBody(t))
		w := httptest.NewRecorder()

		h.Create(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Domain error mapping", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			expected int
		}{
			{"Insufficient stock", model.ErrInsufficientStock, http.StatusConflict},
			{"Product not found", model.ErrProductNotFound, http.StatusNotFound},
			{"Flavor not found", model.NewFlavorNotFoundError("Green", []string{"Red", "Blue"}), http.StatusNotFound},
			{"Coupon not found", model.ErrCouponNotFound, http.StatusNotFound},
			{"Coupon expired", model.ErrCouponExpired, http.StatusBadRequest},
			{"Minimum not met", model.ErrMinimumNotMet, http.StatusBadRequest},
			{"Usage limit reached", model.ErrUsageLimitReached, http.StatusBadRequest},
			{"Stock corruption", model.ErrStockCorruption, http.StatusInternalServerError},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mockService := new(MockOrderService)
				h := NewOrderHandler(mockService, zerolog.Nop())

				mockService.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, tt.err)

				req := httptest.NewRequest(http.MethodPost, "/api/orders", createOrderBody(t))
				w := httptest.NewRecorder()

				h.Create(w, req)

				assert.Equal(t, tt.expected, w.Code)

				var errResp ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
				assert.NotEmpty(t, errResp.Code)
			})
		}
	})

	t.Run("Internal error", func(t *testing.T) {
		mockService := new(MockOrderService)
		h := NewOrderHandler(mockService, zerolog.Nop())

		mockService.On("CreateOrder", mock.Anything, mock.Anything).
			Return(nil, errors.New("database unreachable"))

		req := httptest.NewRequest(http.MethodPost, "/api/orders", createOrderBody(t))
		w := httptest.NewRecorder()

		h.Create(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		// Infrastructure details never leak to the client.
		var errResp ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
		assert.NotContains(t, errResp.Error, "database")
	})

	t.Run("Method not allowed", func(t *testing.T) {
		mockService := new(MockOrderService)
		h := NewOrderHandler(mockService, zerolog.Nop())

		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		w := httptest.NewRecorder()

		h.Create(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestOrderHandler_Verify(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockOrderService)
		h := NewOrderHandler(mockService, zerolog.Nop())

		resp := &model.VerifyOrderResponse{
			OrderNumber:  "FS260601120000123",
			CustomerName: "Alice",
			Total:        160,
			Verified:     true,
		}
		mockService.On("VerifyOrder", mock.Anything, "FS260601120000123", "123456").Return(resp, nil)

		body := bytes.NewBufferString(`{"verificationCode":"123456"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/orders/FS260601120000123/verify", body)
		w := httptest.NewRecorder()

		h.Verify(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var got model.VerifyOrderResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.True(t, got.Verified)
		mockService.AssertExpectations(t)
	})

	t.Run("Missing verification code", func(t *testing.T) {
		mockService := new(MockOrderService)
		h := NewOrderHandler(mockService, zerolog.Nop())

		body := bytes.NewBufferString(`{}`)
		req := httptest.NewRequest(http.MethodPost, "/api/orders/FS260601120000123/verify", body)
		w := httptest.NewRecorder()

		h.Verify(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "VerifyOrder")
	})

	t.Run("Order not found", func(t *testing.T) {
		mockService := new(MockOrderService)
		h := NewOrderHandler(mockService, zerolog.Nop())

		mockService.On("VerifyOrder", mock.Anything, "FS000000000000000", "000000").
			Return(nil, model.ErrOrderNotFound)

		body := bytes.NewBufferString(`{"verificationCode":"000000"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/orders/FS000000000000000/verify", body)
		w := httptest.NewRecorder()

		h.Verify(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderHandler_GetByNumber(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockOrderService)
		h := NewOrderHandler(mockService, zerolog.Nop())

		resp := &model.OrderResponse{
			OrderNumber:  "FS260601120000123",
			CustomerName: "Alice",
			Total:        160,
			Status:       model.StatusPending,
			StatusLabel:  model.StatusLabel(model.StatusPending),
		}
		mockService.On("GetByNumber", mock.Anything, "FS260601120000123", "123456").Return(resp, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/orders/FS260601120000123?code=123456", nil)
		w := httptest.NewRecorder()

		h.GetByNumber(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var got model.OrderResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, "Order received", got.StatusLabel)
		assert.Empty(t, got.VerificationCode)
		mockService.AssertExpectations(t)
	})

	t.Run("Missing code parameter", func(t *testing.T) {
		mockService := new(MockOrderService)
		h := NewOrderHandler(mockService, zerolog.Nop())

		req := httptest.NewRequest(http.MethodGet, "/api/orders/FS260601120000123", nil)
		w := httptest.NewRecorder()

		h.GetByNumber(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "GetByNumber")
	})

	t.Run("Order not found", func(t *testing.T) {
		mockService := new(MockOrderService)
		h := NewOrderHandler(mockService, zerolog.Nop())

		mockService.On("GetByNumber", mock.Anything, "FS000000000000000", "000000").
			Return(nil, model.ErrOrderNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/orders/FS000000000000000?code=000000", nil)
		w := httptest.NewRecorder()

		h.GetByNumber(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderNumberFromPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		suffix   string
		expected string
	}{
		{"Plain number", "/api/orders/FS260601120000123", "", "FS260601120000123"},
		{"Trailing slash", "/api/orders/FS260601120000123/", "", "FS260601120000123"},
		{"Verify suffix", "/api/orders/FS260601120000123/verify", "/verify", "FS260601120000123"},
		{"Missing number", "/api/orders/", "", ""},
		{"Wrong prefix", "/api/products/123", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, orderNumberFromPath(tt.path, tt.suffix))
		})
	}
}
