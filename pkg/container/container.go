package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"elysian-backend/internal/config"
	infracache "elysian-backend/internal/infrastructure/cache"
	"elysian-backend/internal/infrastructure/database"
	"elysian-backend/pkg/cache"
	"elysian-backend/pkg/jwt"
	"elysian-backend/pkg/logger"

	catalogHandler "elysian-backend/internal/domains/catalog/handler"
	catalogJob "elysian-backend/internal/domains/catalog/job"
	catalogRepo "elysian-backend/internal/domains/catalog/repository"
	catalogService "elysian-backend/internal/domains/catalog/service"

	discountHandler "elysian-backend/internal/domains/discount/handler"
	discountRepo "elysian-backend/internal/domains/discount/repository"
	discountService "elysian-backend/internal/domains/discount/service"

	inventoryHandler "elysian-backend/internal/domains/inventory/handler"
	inventoryRepo "elysian-backend/internal/domains/inventory/repository"
	inventoryService "elysian-backend/internal/domains/inventory/service"

	ordermodel "elysian-backend/internal/domains/order/model"

	orderHandler "elysian-backend/internal/domains/order/handler"
	orderRepo "elysian-backend/internal/domains/order/repository"
	orderService "elysian-backend/internal/domains/order/service"

	"elysian-backend/internal/domains/payment/gateway/razorpay"
	paymentHandler "elysian-backend/internal/domains/payment/handler"
	paymentRepo "elysian-backend/internal/domains/payment/repository"
	paymentService "elysian-backend/internal/domains/payment/service"

	userHandler "elysian-backend/internal/domains/user/handler"
	userRepo "elysian-backend/internal/domains/user/repository"
	userService "elysian-backend/internal/domains/user/service"
)

// Container is the root of the dependency graph. Everything in it is a
// singleton built once at startup; initialization order is config,
// infrastructure, repositories, services, handlers.
type Container struct {
	Config      *config.Config
	DB          *database.PostgresDB
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client

	CatalogRepo   catalogRepo.Repository
	DiscountRepo  discountRepo.Repository
	InventoryRepo inventoryRepo.Repository
	OrderRepo     orderRepo.Repository
	UserRepo      userRepo.Repository
	WebhookRepo   paymentRepo.WebhookRepository

	CatalogService   catalogService.Service
	DiscountService  discountService.Service
	InventoryService inventoryService.Service
	OrderService     orderService.Service
	PaymentService   paymentService.Service
	UserService      userService.Service

	CatalogHandler       *catalogHandler.Handler
	DiscountHandler      *discountHandler.Handler
	DiscountAdminHandler *discountHandler.AdminHandler
	InventoryHandler     *inventoryHandler.Handler
	OrderHandler         *orderHandler.Handler
	OrderAdminHandler    *orderHandler.AdminHandler
	PaymentHandler       *paymentHandler.Handler
	UserHandler          *userHandler.Handler

	// StockSyncHandler is consumed by cmd/worker, not the HTTP server.
	StockSyncHandler *catalogJob.StockSyncHandler
}

func NewContainer(ctx context.Context) (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := database.NewPostgresDB(connectCtx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	redisCache := infracache.NewRedisCache(cfg.Redis)
	if err := redisCache.Ping(ctx); err != nil {
		// Caches degrade to the database; the app still starts.
		logger.Warn("redis unavailable at startup", map[string]interface{}{
			"error": err.Error(),
		})
	}
	c.Cache = redisCache

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)

	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("container initialized", map[string]interface{}{
		"environment": cfg.App.Environment,
	})
	return c, nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.CatalogRepo = catalogRepo.NewPostgresRepository(pool, c.Cache)
	c.DiscountRepo = discountRepo.NewPostgresRepository(pool, c.Cache)
	c.InventoryRepo = inventoryRepo.NewPostgresRepository(pool)
	c.OrderRepo = orderRepo.NewPostgresRepository(pool)
	c.UserRepo = userRepo.NewPostgresRepository(pool)
	c.WebhookRepo = paymentRepo.NewWebhookRepository(pool)
}

func (c *Container) initServices() {
	cfg := c.Config

	c.CatalogService = catalogService.NewService(c.CatalogRepo)
	c.InventoryService = inventoryService.NewService(c.InventoryRepo)

	// The user service answers customer-profile questions for discount
	// eligibility; the order count comes straight from the order repository
	// to keep the user/order service dependency one-directional.
	c.UserService = userService.NewService(c.UserRepo, c.OrderRepo, c.JWTManager)

	c.DiscountService = discountService.NewService(c.DiscountRepo, c.CatalogService, c.UserService)

	gatewayClient := razorpay.NewClient(cfg.Razorpay)

	pricing := orderService.PricingConfig{
		Tax: ordermodel.TaxConfig{
			GSTRatePercent: decimal.NewFromInt(int64(cfg.Tax.GSTRatePercent)),
			StoreState:     cfg.Tax.StoreState,
		},
		StandardShipping:      decimal.NewFromInt(cfg.Shipping.StandardCost),
		ExpressShipping:       decimal.NewFromInt(cfg.Shipping.ExpressCost),
		FreeShippingThreshold: decimal.NewFromInt(cfg.Shipping.FreeShippingThreshold),
		GatewayKeyID:          cfg.Razorpay.KeyID,
	}

	c.OrderService = orderService.NewService(
		c.OrderRepo,
		c.CatalogService,
		c.DiscountService,
		c.UserService,
		c.InventoryService,
		gatewayClient,
		c.AsynqClient,
		pricing,
	)

	c.PaymentService = paymentService.NewService(
		c.OrderService,
		c.OrderRepo,
		c.WebhookRepo,
		cfg.Razorpay,
	)
}

func (c *Container) initHandlers() {
	c.CatalogHandler = catalogHandler.NewHandler(c.CatalogService)
	c.DiscountHandler = discountHandler.NewHandler(c.DiscountService)
	c.DiscountAdminHandler = discountHandler.NewAdminHandler(c.DiscountService)
	c.InventoryHandler = inventoryHandler.NewHandler(c.InventoryService)
	c.OrderHandler = orderHandler.NewHandler(c.OrderService)
	c.OrderAdminHandler = orderHandler.NewAdminHandler(c.OrderService)
	c.PaymentHandler = paymentHandler.NewHandler(c.PaymentService)
	c.UserHandler = userHandler.NewHandler(c.UserService)

	c.StockSyncHandler = catalogJob.NewStockSyncHandler(c.CatalogService)
}

// Cleanup releases infrastructure resources during graceful shutdown.
func (c *Container) Cleanup() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			logger.Error("failed to close asynq client", err)
		}
	}

	if c.Cache != nil {
		if rc, ok := c.Cache.(*infracache.RedisCache); ok {
			if err := rc.Close(); err != nil {
				logger.Error("failed to close redis", err)
			}
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	logger.Info("container cleanup completed", nil)
}
