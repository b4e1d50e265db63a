package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"ledger-api/internal/config"
	"ledger-api/internal/controller"
	"ledger-api/internal/database"
	"ledger-api/internal/engine"
	"ledger-api/internal/messaging"
	"ledger-api/internal/middleware"
	"ledger-api/internal/monitoring"
	"ledger-api/internal/repository"
	"ledger-api/internal/service"
	"ledger-api/pkg/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})

	log.WithFields(logrus.Fields{
		"version":    version,
		"build_time": buildTime,
	}).Info("Starting ledger-api")

	ctx := context.Background()

	mongoClient, err := database.ConnectMongo(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	redisClient, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	db := mongoClient.Database(cfg.Database.Name)
	repos := database.NewRepositories(db, redisClient)
	if err := repos.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("Failed to create indexes")
	}

	var publisher messaging.EventPublisher
	if cfg.RabbitMQ.Enabled {
		publisher, err = messaging.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to RabbitMQ")
		}
	} else {
		publisher = messaging.NewNoopPublisher()
	}
	defer publisher.Close()

	metrics := monitoring.NewMetrics()
	health := monitoring.NewHealthChecker(mongoClient, redisClient)

	retry := engine.RetryConfig{
		MaxRetries: cfg.Reversal.MaxRetries,
		Backoff:    cfg.Reversal.RetryBackoff,
	}

	adjusters := []engine.LedgerAdjuster{
		engine.NewWalletAdjuster(repos.Wallets, retry),
		engine.NewCampaignBudgetAdjuster(repos.CampaignBudgets, retry),
		engine.NewBoostBudgetAdjuster(repos.BoostBudgets, retry),
		engine.NewReferralAdjuster(repos.Referrals, retry),
		engine.NewTeamEarningAdjuster(repos.TeamEarnings),
	}

	recorder := engine.NewReversalRecorder(repos.Transactions, retry, log)
	locks := repository.NewReversalLockManager(repos.Locks, cfg.Reversal.LockTTL)

	reversalEngine := engine.NewReversalEngine(
		repos.Transactions,
		adjusters,
		recorder,
		locks,
		repos.Idempotency,
		cfg.Reversal.IdempotencyTTL,
		log,
	)

	adminService := service.NewAdminService(reversalEngine, repos.Transactions, repos.AuditLogs, publisher, metrics, log)
	ledgerService := service.NewLedgerService(repos.Transactions, repos.Wallets, repos.AuditLogs)

	adminController := controller.NewAdminController(adminService, log)
	ledgerController := controller.NewLedgerController(ledgerService, log)

	scheduler := startReconciliation(cfg.Reconciliation, repos.Transactions, metrics, log)
	if scheduler != nil {
		defer scheduler.Stop()
	}

	router := buildRouter(cfg, log, metrics, health, adminController, ledgerController)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
	log.Info("Server stopped")
}

func buildRouter(
	cfg *config.Config,
	log *logrus.Logger,
	metrics *monitoring.Metrics,
	health *monitoring.HealthChecker,
	adminController *controller.AdminController,
	ledgerController *controller.LedgerController,
) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	controller.RegisterValidators()
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.RequestLogging(log, metrics))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		ready, checks := health.Ready(c.Request.Context())
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ready": ready, "checks": checks})
	})
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": version, "build_time": buildTime})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/ledger")
	api.Use(middleware.JWTAuth(cfg.Auth.JWTSecret))
	{
		api.GET("/transactions/:transactionId", ledgerController.GetTransaction)
		api.GET("/users/:userId/transactions", ledgerController.GetUserTransactions)
		api.GET("/wallets/:userId", ledgerController.GetWallet)

		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuth())
		{
			admin.POST("/undo-transaction", adminController.UndoTransaction)
			admin.GET("/transactions/:transactionId/audit", ledgerController.GetAuditLogs)
		}
	}

	// Service-to-service surface, authenticated with the internal API key
	// instead of a user token.
	if cfg.Auth.InternalAPIKey != "" {
		internal := router.Group("/internal/ledger")
		internal.Use(middleware.InternalAPIAuth(cfg.Auth.InternalAPIKey))
		{
			internal.POST("/undo-transaction", adminController.UndoTransaction)
		}
	}

	return router
}

func startReconciliation(
	cfg config.ReconciliationConfig,
	transactions repository.TransactionRepository,
	metrics *monitoring.Metrics,
	log *logrus.Logger,
) *cron.Cron {
	if !cfg.Enabled {
		return nil
	}

	reconciler := engine.NewReconciliationEngine(transactions, cfg.BatchSize, log)

	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		report, err := reconciler.Run(ctx)
		if err != nil {
			log.WithError(err).Error("Reconciliation sweep failed")
			return
		}
		metrics.ReconciliationRepairs.Add(float64(report.Repaired))
	})
	if err != nil {
		log.WithError(err).Fatal("Invalid reconciliation schedule")
	}

	scheduler.Start()
	return scheduler
}
