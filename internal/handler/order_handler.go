package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"flavorshop/internal/model"
	"flavorshop/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	var req model.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		if strings.Contains(err.Error(), "required") ||
			strings.Contains(err.Error(), "must contain") ||
			strings.Contains(err.Error(), "nil") {
			writeError(w, http.StatusBadRequest, err.Error(), h.logger)
			return
		}
		respondError(w, err, "failed to create order", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// Verify handles POST /api/orders/{number}/verify requests.
func (h *OrderHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	number := orderNumberFromPath(r.URL.Path, "/verify")
	if number == "" {
		writeError(w, http.StatusBadRequest, "order number is required", h.logger)
		return
	}

	var req model.VerifyOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if req.VerificationCode == "" {
		writeError(w, http.StatusBadRequest, "verification code is required", h.logger)
		return
	}

	resp, err := h.service.VerifyOrder(r.Context(), number, req.VerificationCode)
	if err != nil {
		respondError(w, err, "failed to verify order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetByNumber handles GET /api/orders/{number}?code=... requests.
func (h *OrderHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	number := orderNumberFromPath(r.URL.Path, "")
	if number == "" {
		writeError(w, http.StatusBadRequest, "order number is required", h.logger)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "verification code is required", h.logger)
		return
	}

	order, err := h.service.GetByNumber(r.Context(), number, code)
	if err != nil {
		respondError(w, err, "failed to retrieve order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// orderNumberFromPath extracts the order number from /api/orders/{number}
// optionally followed by suffix.
func orderNumberFromPath(path, suffix string) string {
	const prefix = "/api/orders/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	number := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if suffix != "" {
		number = strings.TrimSuffix(number, suffix)
	}
	return strings.Trim(number, "/")
}
