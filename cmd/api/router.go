package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"elysian-backend/internal/shared/middleware"
	"elysian-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c)
		setupCatalogRoutes(v1, c)
		setupDiscountRoutes(v1, c)
		setupOrderRoutes(v1, c)
		setupPaymentRoutes(v1, c)
		setupAdminRoutes(v1, c)
	}

	return router
}

func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
		auth.POST("/refresh", c.UserHandler.Refresh)
		auth.GET("/me", middleware.AuthMiddleware(c.JWTManager), c.UserHandler.Me)
	}
}

func setupCatalogRoutes(v1 *gin.RouterGroup, c *container.Container) {
	products := v1.Group("/products")
	{
		products.GET("", c.CatalogHandler.ListProducts)
		products.GET("/:slug", c.CatalogHandler.GetProduct)
	}
}

func setupDiscountRoutes(v1 *gin.RouterGroup, c *container.Container) {
	discounts := v1.Group("/discounts")
	{
		discounts.GET("", c.DiscountHandler.ListPublic)
		discounts.POST("/preview", middleware.AuthMiddleware(c.JWTManager), c.DiscountHandler.Preview)
	}
}

func setupOrderRoutes(v1 *gin.RouterGroup, c *container.Container) {
	v1.GET("/shipping/quote", c.OrderHandler.ShippingQuote)

	orders := v1.Group("/orders")
	orders.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		orders.POST("", c.OrderHandler.Checkout)
		orders.GET("", c.OrderHandler.ListMyOrders)
		orders.GET("/:id", c.OrderHandler.GetOrder)
		orders.POST("/:id/cancel", c.OrderHandler.Cancel)
		orders.POST("/:id/return", c.OrderHandler.RequestReturn)
	}
}

func setupPaymentRoutes(v1 *gin.RouterGroup, c *container.Container) {
	payments := v1.Group("/payments")
	{
		payments.GET("/methods", c.PaymentHandler.ListMethods)
		payments.POST("/verify", middleware.AuthMiddleware(c.JWTManager), c.PaymentHandler.VerifyCheckout)

		// The gateway authenticates with its signature header, not a JWT.
		payments.POST("/webhook", c.PaymentHandler.Webhook)
	}
}

func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())
	{
		discounts := admin.Group("/discounts")
		{
			discounts.POST("", c.DiscountAdminHandler.Create)
			discounts.GET("", c.DiscountAdminHandler.List)
			discounts.PUT("/:id", c.DiscountAdminHandler.Update)
			discounts.DELETE("/:id", c.DiscountAdminHandler.Deactivate)
			discounts.GET("/:id/stats", c.DiscountAdminHandler.UsageStats)
		}

		orders := admin.Group("/orders")
		{
			orders.GET("", c.OrderAdminHandler.List)
			orders.PATCH("/:id/status", c.OrderAdminHandler.UpdateStatus)
		}

		inventory := admin.Group("/inventory")
		{
			inventory.POST("/restock", c.InventoryHandler.Restock)
			inventory.GET("/low-stock", c.InventoryHandler.LowStock)
			inventory.GET("/movements", c.InventoryHandler.Movements)
		}
	}
}

func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		dbStatus := "ok"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := appCtx.DB.HealthCheck(ctx); err != nil {
			dbStatus = fmt.Sprintf("error: %v", err)
			health["status"] = "degraded"
		}

		redisStatus := "ok"
		if err := appCtx.Cache.Ping(ctx); err != nil {
			// Redis is a soft dependency; caches fall through to postgres.
			redisStatus = fmt.Sprintf("error: %v", err)
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, health)
	}
}
