package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flavorshop/internal/checkout"
	"flavorshop/internal/config"
	"flavorshop/internal/coupon"
	"flavorshop/internal/database"
	"flavorshop/internal/handler"
	"flavorshop/internal/notify"
	"flavorshop/internal/repository"
	"flavorshop/internal/router"
	"flavorshop/internal/service"

	rd "github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting flavorshop API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	catalogRepo := repository.NewCatalogRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	stockRepo := repository.NewStockRepository(logger)
	couponRepo := repository.NewCouponRepository(logger)

	// Initialize the post-commit notifier
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Kafka.Enabled {
		notifier = notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("kafka order notifications enabled")
	} else {
		logger.Info().Msg("order notifications disabled (no kafka configured)")
	}
	defer notifier.Close()

	// Initialize the checkout rate limiter backend
	var redisClient *rd.Client
	if cfg.Redis.Enabled {
		redisClient = rd.NewClient(&rd.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, checkout rate limiting disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// Initialize checkout components
	validator := checkout.NewValidator(catalogRepo, logger)
	numberGen := checkout.NewNumberGenerator(logger)
	couponLedger := coupon.NewLedger(couponRepo, logger)

	// Initialize services
	productService := service.NewProductService(catalogRepo, logger)
	orderService := service.NewOrderService(
		orderRepo, stockRepo, validator, numberGen, couponLedger, notifier,
		cfg.Checkout.ShippingFee, logger,
	)

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)

	// Initialize router
	mux := router.New(productHandler, orderHandler, router.Options{
		APIKey:          cfg.Auth.APIKey,
		RedisClient:     redisClient,
		RateLimit:       cfg.Checkout.RateLimit,
		RateLimitWindow: time.Duration(cfg.Checkout.RateLimitWindow) * time.Second,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
