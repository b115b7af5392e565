package api

import (
	"iapkit/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine, h *Handler, apiKeys []string) {
	r.Use(middleware.RequestID())

	// API route group
	api := r.Group("/api")
	api.Use(middleware.APIKeyAuthMiddleware(apiKeys))
	{
		// Receipt verification routes
		receipts := api.Group("/receipt")
		{
			receipts.POST("/verify", h.VerifyReceipt)
			receipts.POST("/purchase", h.VerifyPurchase)
			receipts.POST("/subscription", h.VerifySubscription)
			receipts.POST("/products", h.PurchasedProducts)
		}

		// Statistics and monitoring routes
		api.GET("/stats", h.GetStats)
	}

	// Health check
	r.GET("/health", h.Health)
}
