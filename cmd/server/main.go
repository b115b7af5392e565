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

	"iapkit/internal/api"
	"iapkit/internal/config"
	"iapkit/internal/database"
	"iapkit/internal/services"
	"iapkit/pkg/logging"
	"iapkit/pkg/receipt"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatal("Failed to initialize config:", err)
	}

	// Initialize logging
	logging.InitLogging(config.AppConfig.LogLevel)

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	err := run(config.AppConfig)
	database.CloseDatabase()
	if err != nil {
		log.Fatal("Server stopped:", err)
	}
}

func run(cfg *config.Config) error {
	if cfg.SharedSecret == "" {
		logging.Warnf("APPSTORE_SHARED_SECRET is not set, auto-renewable receipts will not validate")
	}

	service := receipt.Production
	if cfg.UseSandbox {
		service = receipt.Sandbox
	}
	validator := receipt.NewAppleValidator(service, cfg.SharedSecret, cfg.ValidatorTimeout)
	validator.ExcludeOldTransactions = cfg.ExcludeOldTransactions

	var cache services.ReceiptCache
	if client := database.GetRedis(); client != nil {
		cache = services.NewRedisReceiptCache(client)
	}

	handlerConfig := api.HandlerConfig{
		Receipts: services.NewReceiptService(validator, cache, cfg.ReceiptCacheTTL),
		Audit:    services.NewAuditService(database.GetDB()),
		Ping:     database.Ping,
	}
	if cfg.WebhookCallbackURL != "" {
		dedup := services.NewNotificationDeduper(24 * time.Hour)
		defer dedup.Stop()

		handlerConfig.Notifier = services.NewWebhookNotifier(cfg.WebhookCallbackURL, cfg.WebhookSecret)
		handlerConfig.Dedup = dedup
	}

	// Set Gin mode
	gin.SetMode(cfg.Mode)

	// Create Gin engine
	r := gin.Default()

	// Setup routes
	api.SetupRoutes(r, api.NewHandler(handlerConfig), cfg.APIKeys)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ValidatorTimeout*2 + 10*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logging.Infof("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
