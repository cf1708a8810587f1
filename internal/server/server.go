package server

import (
	"fmt"
	"net/http"
	"time"

	"shopmi-api/internal/cart"
	"shopmi-api/internal/catalog"
	"shopmi-api/internal/config"
	custommiddleware "shopmi-api/internal/middleware"
	"shopmi-api/internal/repository"
	"shopmi-api/internal/shipping"
	"shopmi-api/internal/shopify"
	"shopmi-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, redisClient *redis.Client) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))
	router.Use(custommiddleware.SessionMiddleware())

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Outbound clients. Missing tokens yield nil clients that answer every
	// call with a "not initialized" error instead of failing startup.
	storefrontClient := shopify.NewStorefrontClient(
		cfg.Shopify.StoreDomain, cfg.Shopify.StorefrontToken, cfg.Shopify.APIVersion, logger)
	adminClient := shopify.NewAdminClient(
		cfg.Shopify.StoreDomain, cfg.Shopify.AdminToken, cfg.Shopify.APIVersion, logger)
	carrierClient := shipping.NewClient(cfg.Carrier, logger)

	// The placeholder dataset replaces the live catalog only when
	// explicitly configured outside production.
	var provider catalog.Provider = shopify.NewStorefront(storefrontClient, logger)
	if cfg.Catalog.UseMock {
		logger.Warn("Catalog is serving the mock dataset")
		provider = catalog.NewMockProvider()
	}

	// Initialize services
	catalogService := catalog.NewService(provider, logger)
	cartService := cart.NewService(repository.NewCartRepository(redisClient, logger), logger)
	admin := shopify.NewAdmin(adminClient, logger)

	// Initialize handlers
	catalogHandler := transport.NewCatalogHandler(catalogService, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	shippingHandler := transport.NewShippingHandler(carrierClient, cartService, logger)
	adminHandler := transport.NewAdminHandler(admin, logger)

	// The carrier quota is the scarce resource; rate-limit quote calls.
	shippingRateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 30,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:shipping",
	}, logger)

	adminAuth := custommiddleware.AdminAuthMiddleware(cfg.Admin.JWTSecret, logger)

	// Register routes
	catalogHandler.RegisterRoutes(router)
	cartHandler.RegisterRoutes(router)
	shippingHandler.RegisterRoutes(router, shippingRateLimit)
	adminHandler.RegisterRoutes(router, adminAuth)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
