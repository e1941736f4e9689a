package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"payments/internal/config"
	"payments/internal/handler"
	"payments/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	PaymentHandler     *handler.PaymentHandler
	CardHandler        *handler.CardHandler
	BankAccountHandler *handler.BankAccountHandler
	ReferenceHandler   *handler.ReferenceHandler
	RedisClient        *redis.Client
	NewRelicApp        *newrelic.Application
	Logger             *zap.Logger
	Auth               config.AuthConfig
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(middleware.NewRedisResponseStore(deps.RedisClient)))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes. Every payments route requires the bearer credential.
	v1 := router.Group("/v1")
	{
		payments := v1.Group("/payments", middleware.BearerAuth(deps.Auth.APIKey))
		{
			payments.POST("", deps.PaymentHandler.CreatePayment)

			// Reference data. Registered before /:paymentId so the static
			// segments are not captured as payment ids.
			payments.GET("/encryption-public-key", deps.ReferenceHandler.GetPublicKey)
			payments.GET("/currency", deps.ReferenceHandler.GetCurrency)

			// Cards.
			cards := payments.Group("/cards")
			{
				cards.POST("", deps.CardHandler.CreateCard)
				cards.GET("", deps.CardHandler.GetCards)
				cards.GET("/:cardId/status", deps.CardHandler.GetCardStatus)
				cards.PATCH("/:cardId", deps.CardHandler.UpdateCard)
				cards.DELETE("/:cardId", deps.CardHandler.RemoveCard)
			}

			// Bank accounts.
			bankAccounts := payments.Group("/bank-accounts")
			{
				bankAccounts.POST("", deps.BankAccountHandler.CreateBankAccount)
				bankAccounts.GET("/:bankAccountId/status", deps.BankAccountHandler.GetBankAccountStatus)
				bankAccounts.GET("/:bankAccountId/instructions", deps.BankAccountHandler.GetWireInstructions)
			}

			payments.GET("/:paymentId", deps.PaymentHandler.GetPayment)
		}

		// Admin read surface: single authoritative server-side check.
		admin := v1.Group("/admin", middleware.AdminAuth(deps.Auth.AdminAPIKey))
		{
			admin.GET("/payments", deps.PaymentHandler.ListPayments)
		}
	}

	return router
}
