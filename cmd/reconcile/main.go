// Command reconcile rebuilds derived ledger state from the transactions table.
//
//	reconcile                                  one pass over every owner
//	reconcile -user <id> -month 3 -year 2024   one budget period plus the owner's balances
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finledger/internal/config"
	"finledger/internal/database"
	"finledger/internal/jobs"
	"finledger/internal/logger"
	"finledger/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Reconcile error: %v", err)
	}
}

func run() error {
	userID := flag.String("user", "", "reconcile a single owner")
	month := flag.Int("month", 0, "month to reconcile (with -user)")
	year := flag.Int("year", 0, "year to reconcile (with -user)")
	workers := flag.Int("workers", 0, "owners processed concurrently (defaults to RECONCILE_WORKERS)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	db := dbManager.DB()
	balances := services.NewBalanceService(db)
	budgets := services.NewBudgetService(db)
	log := logger.Get()

	if *userID != "" {
		return reconcileOwner(ctx, balances, budgets, *userID, *month, *year)
	}

	n := cfg.ReconcileWorkers
	if *workers > 0 {
		n = *workers
	}
	result, err := jobs.NewReconciler(balances, budgets, n, 0).RunOnce(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	for _, ownerErr := range result.Errors {
		log.Errorw("owner not reconciled", "user_id", ownerErr.UserID, "error", ownerErr.Err)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d of %d owners failed", len(result.Errors), result.Owners)
	}
	return nil
}

func reconcileOwner(ctx context.Context, balances services.BalanceServicer, budgets services.BudgetServicer, userID string, month, year int) error {
	log := logger.Get()

	if month != 0 || year != 0 {
		period, err := budgets.Reconcile(ctx, userID, month, year)
		if err != nil {
			return fmt.Errorf("reconcile period %04d-%02d: %w", year, month, err)
		}
		log.Infow("budget period reconciled",
			"user_id", userID,
			"month", month,
			"year", year,
			"total_income", period.TotalIncome.String(),
			"total_expense", period.TotalExpense.String(),
			"net_balance", period.NetBalance.String(),
		)
	}

	accounts, err := balances.ReconcileOwnerAccounts(ctx, userID)
	for _, account := range accounts {
		log.Infow("account reconciled", "account_id", account.ID, "balance", account.Balance.String())
	}
	return err
}
