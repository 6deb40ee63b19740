package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"moneta/internal/config"
	"moneta/internal/handlers"
	"moneta/internal/logger"
	"moneta/internal/middleware"
	"moneta/internal/persist"
	"moneta/internal/scheduler"
	"moneta/internal/services"
	"moneta/internal/store"
	"moneta/internal/validator"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Open the persistence collaborator and load the last snapshot. The
	// in-memory store is the source of truth from here on; saves are
	// debounced and fire-and-forget.
	persister, err := persist.Open(appConfig)
	if err != nil {
		return fmt.Errorf("failed to open persistence: %w", err)
	}
	snapshot, err := persister.Load()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	saver := persist.NewSaver(persister, appConfig.SaveDebounce)
	defer saver.Close()

	st := store.New(saver)
	st.Restore(snapshot)

	// Initialize services
	accountService := services.NewAccountService(st)
	transactionService := services.NewTransactionService(st)
	recurringService := services.NewRecurringService(st, appConfig.HorizonMonths)
	projectionService := services.NewProjectionService(st)

	// Catch up on instances that became due while the server was down.
	if err := recurringService.Reconcile(time.Now().UTC()); err != nil {
		return fmt.Errorf("startup reconciliation failed: %w", err)
	}

	// Periodic refresh keeps the rolling horizon populated.
	sched, err := scheduler.New(recurringService, appConfig.ReconcileSchedule)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(accountService, transactionService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, projectionService)
	recurringHandler := handlers.NewRecurringHandler(recurringService)
	instanceHandler := handlers.NewInstanceHandler(recurringService)
	balanceHandler := handlers.NewBalanceHandler(projectionService)

	// Initialize Gin router
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.Register()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Account routes
	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.GET("/:id/transactions", accountHandler.GetAccountTransactions)

	// Balance projection
	v1.GET("/balances", balanceHandler.GetBalances)

	// Transaction routes
	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.POST("/:id/approve", transactionHandler.ApproveTransaction)
	transactions.POST("/:id/unapprove", transactionHandler.UnapproveTransaction)

	// Recurring definition routes
	recurring := v1.Group("/recurring")
	recurring.POST("", recurringHandler.CreateDefinition)
	recurring.GET("", recurringHandler.GetDefinitions)
	recurring.GET("/:id", recurringHandler.GetDefinitionByID)
	recurring.PUT("/:id", recurringHandler.UpdateDefinition)
	recurring.DELETE("/:id", recurringHandler.DeleteDefinition)

	// Generated instance routes
	instances := v1.Group("/instances")
	instances.GET("", instanceHandler.GetInstances)
	instances.POST("/approve", instanceHandler.BulkApprove)
	instances.POST("/:id/approve", instanceHandler.ApproveInstance)
	instances.POST("/:id/skip", instanceHandler.SkipInstance)

	log.Infof("Starting Moneta backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
