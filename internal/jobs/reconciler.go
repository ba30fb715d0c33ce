// Package jobs runs background maintenance over the ledger's derived state.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"finledger/internal/logger"
	"finledger/internal/services"
)

// OwnerError records a reconciliation failure for one owner.
type OwnerError struct {
	UserID string
	Err    error
}

func (e OwnerError) Error() string {
	return fmt.Sprintf("reconcile owner %s: %v", e.UserID, e.Err)
}

func (e OwnerError) Unwrap() error { return e.Err }

// RunResult summarizes one reconciliation pass.
type RunResult struct {
	Owners   int
	Periods  int
	Accounts int
	Errors   []OwnerError
	Duration time.Duration
}

// Reconciler rebuilds budget periods and account balances from the
// transactions table. It is the repair path for side effects that failed.
type Reconciler struct {
	balances services.BalanceServicer
	budgets  services.BudgetServicer
	workers  int
	interval time.Duration
}

// NewReconciler creates a Reconciler. workers bounds the number of owners
// processed at once; interval is used by Start.
func NewReconciler(balances services.BalanceServicer, budgets services.BudgetServicer, workers int, interval time.Duration) *Reconciler {
	if workers < 1 {
		workers = 1
	}
	return &Reconciler{
		balances: balances,
		budgets:  budgets,
		workers:  workers,
		interval: interval,
	}
}

// RunOnce reconciles, for every owner with an active account, the budget
// periods of the month containing now and the month before, plus every
// account balance. A failing owner does not stop the others.
func (r *Reconciler) RunOnce(ctx context.Context, now time.Time) (*RunResult, error) {
	start := time.Now()
	log := logger.Named("reconciler")

	owners, err := r.balances.ListOwners(ctx)
	if err != nil {
		return nil, err
	}

	current := services.PeriodKeyOf(now)
	periods := []services.PeriodKey{current, current.Previous()}

	var (
		mu     sync.Mutex
		result = &RunResult{Owners: len(owners)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, userID := range owners {
		userID := userID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			reconciled, accounts, err := r.reconcileOwner(gctx, userID, periods)

			mu.Lock()
			defer mu.Unlock()
			result.Periods += reconciled
			result.Accounts += accounts
			if err != nil {
				result.Errors = append(result.Errors, OwnerError{UserID: userID, Err: err})
				log.Warnw("owner reconciliation failed", "user_id", userID, "error", err)
			}
			// Owner failures are collected, not propagated, so the group
			// keeps going; only cancellation ends the pass early.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	log.Infow("reconciliation pass finished",
		"owners", result.Owners,
		"periods", result.Periods,
		"accounts", result.Accounts,
		"failed_owners", len(result.Errors),
		"duration", result.Duration,
	)
	return result, nil
}

func (r *Reconciler) reconcileOwner(ctx context.Context, userID string, periods []services.PeriodKey) (int, int, error) {
	reconciled := 0
	for _, key := range periods {
		if _, err := r.budgets.Reconcile(ctx, userID, key.Month, key.Year); err != nil {
			return reconciled, 0, fmt.Errorf("period %04d-%02d: %w", key.Year, key.Month, err)
		}
		reconciled++
	}

	accounts, err := r.balances.ReconcileOwnerAccounts(ctx, userID)
	return reconciled, len(accounts), err
}

// Start runs RunOnce every interval until ctx is done. It returns
// immediately when the interval is not positive.
func (r *Reconciler) Start(ctx context.Context) {
	log := logger.Named("reconciler")
	if r.interval <= 0 {
		log.Infow("scheduled reconciliation disabled")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	log.Infow("scheduled reconciliation started", "interval", r.interval, "workers", r.workers)

	for {
		select {
		case <-ctx.Done():
			log.Infow("scheduled reconciliation stopped", "reason", ctx.Err())
			return
		case tick := <-ticker.C:
			if _, err := r.RunOnce(ctx, tick); err != nil {
				log.Errorw("reconciliation pass aborted", "error", err)
			}
		}
	}
}
