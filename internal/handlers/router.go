package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"artprint-backend/internal/config"
	"artprint-backend/internal/database"
	"artprint-backend/internal/middleware"
	"artprint-backend/internal/observability"
	"artprint-backend/internal/services"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *database.DatabaseClient
	Artworks    *services.ArtworkService
	Checkout    *services.CheckoutService
	Fulfillment *services.FulfillmentService
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.RequestLogger(deps.Logger))

	readyHandler := NewReadyHandler(deps.DB, deps.Logger)
	artworksHandler := NewArtworksHandler(deps.Artworks, deps.Logger)
	checkoutHandler := NewCheckoutHandler(deps.Checkout, deps.Logger)
	webhookHandler := NewWebhookHandler(deps.Config, deps.Checkout, deps.Fulfillment, deps.Logger)
	ordersHandler := NewOrdersHandler(deps.DB, deps.Fulfillment, deps.Config, deps.Logger)

	// Health checks (no auth)
	router.GET("/health", HealthHandler)
	router.GET("/ready", readyHandler.Ready)

	// Public assets
	router.GET("/art/*key", artworksHandler.ServeArt)

	api := router.Group("/api")
	api.GET("/sample/latest", artworksHandler.LatestSample)
	api.POST("/preview", artworksHandler.CreatePreview)
	api.POST("/checkout", checkoutHandler.CreateCheckout)

	// Webhooks (signature verified, no auth)
	api.POST("/webhook/stripe", webhookHandler.HandleStripe)
	api.POST("/webhook/:provider", webhookHandler.HandlePOD)

	adminAuth := middleware.AdminAuth(deps.Config)

	internal := api.Group("/internal", adminAuth)
	internal.POST("/cron/sample", artworksHandler.CronSample)

	admin := api.Group("/admin", adminAuth)
	admin.GET("/stats", ordersHandler.GetStats)
	admin.GET("/orders", ordersHandler.ListOrders)
	admin.GET("/orders/:id", ordersHandler.GetOrder)
	admin.PATCH("/orders/:id", ordersHandler.UpdateOrder)
	admin.POST("/orders/:id/fulfill", ordersHandler.FulfillOrder)
	admin.POST("/orders/:id/cancel", ordersHandler.CancelOrder)
	admin.POST("/orders/:id/sync", ordersHandler.SyncOrder)

	return router
}
