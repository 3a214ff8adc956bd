package router

import (
	"net/http"
	"strings"
	"time"

	"flavorshop/internal/handler"
	"flavorshop/internal/middleware"

	rd "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Options carries router wiring beyond the handlers themselves.
type Options struct {
	APIKey          string
	RedisClient     *rd.Client // nil disables checkout rate limiting
	RateLimit       int
	RateLimitWindow time.Duration
}

// New creates a new HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	opts Options,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Product handler function
	productRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		// Check if this is a request for a specific product ID
		if r.URL.Path != "/api/products" && r.URL.Path != "/api/products/" {
			productHandler.GetByID(w, r)
			return
		}
		productHandler.GetAll(w, r)
	}

	// Register product routes (both with and without trailing slash)
	mux.HandleFunc("/api/products", productRouteHandler)
	mux.HandleFunc("/api/products/", productRouteHandler)

	// Order creation gets its own route so the rate limiter wraps only it.
	var createHandler http.Handler = http.HandlerFunc(orderHandler.Create)
	if opts.RedisClient != nil {
		createHandler = middleware.RateLimit(
			opts.RedisClient, opts.RateLimit, opts.RateLimitWindow, logger,
		)(createHandler)
	}

	// Order handler function
	orderRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		// Route based on method and path
		if r.Method == http.MethodPost && (r.URL.Path == "/api/orders" || r.URL.Path == "/api/orders/") {
			createHandler.ServeHTTP(w, r)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/api/orders/") && r.URL.Path != "/api/orders/" {
			if r.Method == http.MethodPost && strings.HasSuffix(strings.TrimRight(r.URL.Path, "/"), "/verify") {
				orderHandler.Verify(w, r)
				return
			}
			orderHandler.GetByNumber(w, r)
			return
		}

		http.Error(w, "not found", http.StatusNotFound)
	}

	// Register order routes (both with and without trailing slash)
	mux.HandleFunc("/api/orders", orderRouteHandler)
	mux.HandleFunc("/api/orders/", orderRouteHandler)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(opts.APIKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
