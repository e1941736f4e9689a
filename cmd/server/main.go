package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"payments/internal/app"
	"payments/internal/config"
	"payments/internal/domain"
	"payments/internal/events"
	"payments/internal/handler"
	"payments/internal/processor"
	internalRedis "payments/internal/redis"
	"payments/internal/repository/postgres"
	"payments/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	if err := postgres.InitSchema(ctx, db); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	// Event publisher is optional; without brokers events are discarded.
	var publisher service.EventPublisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info("kafka publisher enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	// Wire dependencies.
	server, reconciler := wireServer(db, redisClient, nrApp, publisher, logger, cfg)

	// Run the settlement reconciliation worker until shutdown.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go reconciler.Run(workerCtx)

	// Start server in goroutine.
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stopWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// reconciliation worker.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	publisher service.EventPublisher,
	logger *zap.Logger,
	cfg *config.Config,
) (*http.Server, *service.Reconciler) {
	// Processor gateway. The simulator stands in for the real rail; swap
	// here when wiring a live processor.
	gateway := processor.NewSimulator()

	// Initialize repositories.
	paymentRepo := postgres.NewPaymentRepository(db)
	cardRepo := postgres.NewCardRepository(db)
	bankAccountRepo := postgres.NewBankAccountRepository(db)
	txRunner := postgres.NewTxRunner(db)

	// Initialize services.
	currency := domain.Currency{
		Code:     cfg.Currency.Code,
		Base:     cfg.Currency.Base,
		Exponent: cfg.Currency.Exponent,
	}
	keyCache := internalRedis.NewPublicKeyCache(redisClient, cfg.PublicKeyTTL)
	referenceService := service.NewReferenceService(currency, gateway, keyCache, logger)
	cardService := service.NewCardService(cardRepo, gateway, txRunner)
	bankAccountService := service.NewBankAccountService(bankAccountRepo, gateway)
	paymentService := service.NewPaymentService(paymentRepo, cardRepo, bankAccountRepo, gateway, referenceService, txRunner, publisher, logger)
	reconciler := service.NewReconciler(paymentRepo, gateway, publisher, logger, cfg.Reconciler.Interval, cfg.Reconciler.BatchSize)

	// Initialize handlers.
	paymentHandler := handler.NewPaymentHandler(paymentService)
	cardHandler := handler.NewCardHandler(cardService)
	bankAccountHandler := handler.NewBankAccountHandler(bankAccountService)
	referenceHandler := handler.NewReferenceHandler(referenceService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		PaymentHandler:     paymentHandler,
		CardHandler:        cardHandler,
		BankAccountHandler: bankAccountHandler,
		ReferenceHandler:   referenceHandler,
		RedisClient:        redisClient,
		NewRelicApp:        nrApp,
		Logger:             logger,
		Auth:               cfg.Auth,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, reconciler
}
