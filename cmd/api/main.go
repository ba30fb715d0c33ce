package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finledger/internal/cache"
	"finledger/internal/config"
	"finledger/internal/database"
	"finledger/internal/events"
	"finledger/internal/handlers"
	"finledger/internal/jobs"
	"finledger/internal/logger"
	"finledger/internal/server"
	"finledger/internal/services"
	"finledger/internal/validator"

	_ "finledger/internal/docs" // Import swagger docs
)

// @title           Finledger API
// @version         1.0
// @description     Finledger keeps personal-finance transactions, account balances, credit card limits and monthly budgets consistent.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	summaries, closeCache := cache.New(ctx, appConfig.RedisAddr, appConfig.SummaryCacheTTL)
	defer closeCache()

	observer := services.NewLoggingObserver()
	if appConfig.AMQPURL != "" {
		publisher, err := events.NewPublisher(appConfig.AMQPURL, appConfig.AMQPExchange, appConfig.AMQPQueue)
		if err != nil {
			log.Errorw("drift events disabled", "error", err)
		} else {
			defer publisher.Close()
			observer = services.MultiObserver(observer, publisher)
		}
	} else {
		log.Warn("AMQP_URL not set, drift events disabled")
	}

	validator.Register()

	db := dbManager.DB()
	balanceService := services.NewBalanceService(db)
	budgetService := services.NewBudgetService(db)
	creditLimitService := services.NewCreditLimitService(db, balanceService)
	transactionService := services.NewTransactionService(db, balanceService, creditLimitService, budgetService, summaries, observer)
	summaryService := services.NewSummaryService(db, summaries)
	reconciler := jobs.NewReconciler(balanceService, budgetService, appConfig.ReconcileWorkers, appConfig.ReconcileInterval)

	router := server.NewRouter(server.Handlers{
		Accounts:     handlers.NewAccountHandler(services.NewAccountService(db)),
		Categories:   handlers.NewCategoryHandler(services.NewCategoryService(db)),
		Transactions: handlers.NewTransactionHandler(transactionService),
		Budgets:      handlers.NewBudgetHandler(budgetService, summaryService),
		Reconcile:    handlers.NewReconcileHandler(balanceService, reconciler),
	}, server.Options{
		JWTSecret: appConfig.JWTSecret,
		OpsAPIKey: appConfig.OpsAPIKey,
		Swagger:   appConfig.Env != "production",
		Owners:    services.NewUserService(db),
	})

	go reconciler.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Finledger server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
