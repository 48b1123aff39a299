package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"thrift-store/internal/config"
	"thrift-store/internal/database"
	custommiddleware "thrift-store/internal/middleware"
	"thrift-store/internal/repository"
	"thrift-store/internal/service"
	"thrift-store/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires repositories, services and handlers into the HTTP router.
// redisClient may be nil, in which case rate limiting is skipped.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsDevelopment()))
	if cfg.RateLimit.Enabled && redisClient != nil {
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "thrift_store_rate_limit",
		}, logger))
	}

	s := &Server{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}
	router.Get("/health", s.health)

	sqlDB := db.DB()

	// Initialize repositories
	txManager := repository.NewTxManager(sqlDB, cfg.Market.LockTimeout)
	userRepo := repository.NewUserRepository(sqlDB)
	profileRepo := repository.NewProfileRepository(sqlDB)
	entryRepo := repository.NewCreditEntryRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	itemRepo := repository.NewItemRepository(sqlDB)
	cartRepo := repository.NewCartRepository(sqlDB)
	orderRepo := repository.NewOrderRepository(sqlDB)
	messageRepo := repository.NewMessageRepository(sqlDB)
	reviewRepo := repository.NewReviewRepository(sqlDB)

	// Initialize services
	userService := service.NewUserService(
		txManager, userRepo, profileRepo, entryRepo,
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessExpiry)*time.Minute,
		cfg.Market.SignupCredits,
	)
	profileService := service.NewProfileService(txManager, profileRepo)
	ledgerService := service.NewLedgerService(txManager, profileRepo, entryRepo, cfg.Market.MinimumPurchase)
	catalogService := service.NewCatalogService(txManager, itemRepo, categoryRepo, cartRepo, ledgerService, cfg.Market.ListingFee)
	cartService := service.NewCartService(cartRepo, itemRepo)
	checkoutService := service.NewCheckoutService(txManager, cartRepo, itemRepo, orderRepo, catalogService, logger)
	conversationService := service.NewConversationService(messageRepo, itemRepo, cartRepo)
	reviewService := service.NewReviewService(txManager, reviewRepo, orderRepo, itemRepo, profileRepo)

	authMiddleware := custommiddleware.AuthMiddleware(userService, logger)
	optionalAuth := custommiddleware.OptionalAuthMiddleware(userService, logger)
	adminOnly := custommiddleware.RequireAdmin(logger)

	// Register routes
	transport.NewUserHandler(userService, profileService, catalogService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewCreditHandler(ledgerService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewItemHandler(catalogService, checkoutService, logger).RegisterRoutes(router, authMiddleware, optionalAuth, adminOnly)
	transport.NewReviewHandler(reviewService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewMessageHandler(conversationService, catalogService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewCartHandler(cartService, checkoutService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewOrderHandler(checkoutService, logger).RegisterRoutes(router, authMiddleware)

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// health reports database and redis status. The service is down only when the
// database is.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	stats := s.db.Health()

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			stats["redis"] = "down"
		} else {
			stats["redis"] = "up"
		}
	}

	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	custommiddleware.RespondWithJSON(w, status, stats)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
