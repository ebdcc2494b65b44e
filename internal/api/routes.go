package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/assessly-billing/internal/core"
	"github.com/example/assessly-billing/internal/middleware"
)

// Services bundles the services the routes dispatch to.
type Services struct {
	Billing  core.BillingService
	Webhooks core.WebhookService
	Users    core.UserService
}

// SetupRoutes configures all the application routes with their handlers and middleware.
// Global middleware (logging, recovery, CORS) is expected to be applied to router already.
func SetupRoutes(router *gin.Engine, services Services, verifier middleware.TokenVerifier, logger *zap.Logger) {
	authMW := middleware.NewAuthMiddleware(verifier, logger)
	billingHandler := NewBillingHandler(services.Billing, services.Webhooks, logger)
	userHandler := NewUserHandler(services.Users, logger)

	// Public webhook endpoints. Stripe authenticates deliveries by signature.
	router.POST("/stripeWebhook", billingHandler.HandleStripeWebhook)

	apiV1 := router.Group("/api/v1")
	{
		userGroup := apiV1.Group("/users", authMW.VerifyToken())
		{
			userGroup.POST("/initialize", userHandler.InitializeUserProfile)
			userGroup.GET("/me", userHandler.GetCurrentUserProfile)
		}

		billingGroup := apiV1.Group("/billing")
		{
			billingGroup.POST("/createCheckoutSession", authMW.VerifyToken(), billingHandler.CreateCheckoutSession)
			billingGroup.POST("/createPortalLink", authMW.VerifyToken(), billingHandler.CreatePortalLink)
			billingGroup.POST("/webhooks/stripe", billingHandler.HandleStripeWebhook)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Assessly billing is healthy."})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("API routes configured successfully under /api/v1, /stripeWebhook, /health and /metrics.")
}
