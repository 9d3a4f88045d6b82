package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"artprint-backend/internal/blob"
	"artprint-backend/internal/config"
	"artprint-backend/internal/database"
	"artprint-backend/internal/handlers"
	"artprint-backend/internal/observability"
	"artprint-backend/internal/payments"
	"artprint-backend/internal/pod"
	"artprint-backend/internal/scheduler"
	"artprint-backend/internal/services"
	"artprint-backend/internal/supabase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database and migrations
	sqlDB, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("driver", cfg.DatabaseDriver), zap.Error(err))
	}
	dbClient := database.NewDatabaseClient(sqlDB)
	defer dbClient.Close()

	if err := database.NewMigrator(sqlDB, logger.Named("migrator")).Run(ctx); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	// Blob storage
	var blobs blob.Store
	switch cfg.BlobBackend {
	case "supabase":
		supabaseClient, err := supabase.NewClient(cfg)
		if err != nil {
			logger.Fatal("failed to initialise supabase client", zap.Error(err))
		}
		blobs = supabaseClient.BlobStore()
	default:
		boltStore, err := blob.NewBoltStore(cfg.BlobBoltPath)
		if err != nil {
			logger.Fatal("failed to open blob store", zap.String("path", cfg.BlobBoltPath), zap.Error(err))
		}
		defer boltStore.Close()
		blobs = boltStore
	}

	// External providers
	provider, err := pod.New(cfg)
	if err != nil {
		logger.Fatal("failed to initialise pod provider", zap.Error(err))
	}

	// Left as a nil interface when payments are off; a typed nil pointer
	// would make CheckoutService report itself enabled.
	var checkoutSessions services.CheckoutSessionCreator
	if cfg.PaymentsEnabled() {
		stripeProvider, err := payments.NewStripeProvider(payments.StripeProviderConfig{APIKey: cfg.StripeSecretKey})
		if err != nil {
			logger.Fatal("failed to initialise stripe", zap.Error(err))
		}
		checkoutSessions = stripeProvider
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set; checkout is disabled")
	}
	if cfg.StripeWebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set; payment webhooks are disabled")
	}
	for _, name := range []string{pod.ProviderGelato, pod.ProviderPrintful} {
		if cfg.PODWebhookSecret(name) == "" {
			logger.Warn("pod webhook secret not set; signatures will not be verified", zap.String("provider", name))
		}
	}
	if !cfg.AdminEnabled() {
		logger.Warn("ADMIN_TOKEN and ADMIN_JWT_SECRET not set; admin API is disabled")
	}

	// Services
	artworkService := services.NewArtworkService(dbClient, blobs, logger.Named("artworks"))
	fulfillmentService := services.NewFulfillmentService(dbClient, provider, cfg, logger.Named("fulfillment"))
	checkoutService := services.NewCheckoutService(dbClient, checkoutSessions, fulfillmentService, cfg, logger.Named("checkout"))

	var sampleScheduler *scheduler.Scheduler
	if cfg.SampleScheduleEnabled {
		sampleScheduler = scheduler.New(artworkService, logger.Named("scheduler"))
		sampleScheduler.Start(ctx)
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:      cfg,
		Logger:      logger.Named("http"),
		DB:          dbClient,
		Artworks:    artworkService,
		Checkout:    checkoutService,
		Fulfillment: fulfillmentService,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("server starting", zap.String("pod_provider", provider.Name()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if sampleScheduler != nil {
		sampleScheduler.Wait()
	}
}
