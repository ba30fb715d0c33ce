package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"finledger/internal/models"
	"finledger/internal/services"
	"finledger/internal/testutil"
)

func setup(t *testing.T) (*gorm.DB, services.BalanceServicer, services.BudgetServicer) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return db, services.NewBalanceService(db), services.NewBudgetService(db)
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	db, balances, budgets := setup(t)
	now := time.Date(2024, time.April, 10, 8, 0, 0, 0, time.UTC)
	march := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)

	alice := testutil.CreateTestUser(t, db)
	bob := testutil.CreateTestUser(t, db)
	aliceAcct := testutil.CreateTestCurrentAccount(t, db, alice.ID, "100")
	bobAcct := testutil.CreateTestCurrentAccount(t, db, bob.ID, "0")

	testutil.CreateTestTransaction(t, db, alice.ID, aliceAcct.ID, models.TransactionKindIncome, models.TransactionStatusConfirmed, "900", now)
	testutil.CreateTestTransaction(t, db, alice.ID, aliceAcct.ID, models.TransactionKindExpense, models.TransactionStatusConfirmed, "40", march)
	testutil.CreateTestTransaction(t, db, bob.ID, bobAcct.ID, models.TransactionKindExpense, models.TransactionStatusConfirmed, "15", now)

	r := NewReconciler(balances, budgets, 2, 0)
	result, err := r.RunOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Owners)
	assert.Equal(t, 4, result.Periods)
	assert.Equal(t, 2, result.Accounts)
	assert.Empty(t, result.Errors)

	april, err := budgets.FindOrCreatePeriod(ctx, alice.ID, 4, 2024)
	require.NoError(t, err)
	assert.True(t, april.TotalIncome.Equal(testutil.Dec("900")))
	marchPeriod, err := budgets.FindOrCreatePeriod(ctx, alice.ID, 3, 2024)
	require.NoError(t, err)
	assert.True(t, marchPeriod.TotalExpense.Equal(testutil.Dec("40")))

	assert.True(t, testutil.ReloadAccount(t, db, aliceAcct.ID).Balance.Equal(testutil.Dec("960")))
	assert.True(t, testutil.ReloadAccount(t, db, bobAcct.ID).Balance.Equal(testutil.Dec("-15")))

	again, err := r.RunOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, result.Periods, again.Periods)
	assert.True(t, testutil.ReloadAccount(t, db, aliceAcct.ID).Balance.Equal(testutil.Dec("960")))
}

// failingBudgets fails Reconcile for one owner.
type failingBudgets struct {
	services.BudgetServicer
	failFor string
}

func (b failingBudgets) Reconcile(ctx context.Context, userID string, month, year int) (*models.BudgetPeriod, error) {
	if userID == b.failFor {
		return nil, errors.New("storage unavailable")
	}
	return b.BudgetServicer.Reconcile(ctx, userID, month, year)
}

func TestRunOnceCollectsOwnerErrors(t *testing.T) {
	db, balances, budgets := setup(t)
	good := testutil.CreateTestUser(t, db)
	bad := testutil.CreateTestUser(t, db)
	testutil.CreateTestCurrentAccount(t, db, good.ID, "0")
	testutil.CreateTestCurrentAccount(t, db, bad.ID, "0")

	r := NewReconciler(balances, failingBudgets{BudgetServicer: budgets, failFor: bad.ID}, 1, 0)
	result, err := r.RunOnce(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, bad.ID, result.Errors[0].UserID)
	assert.Contains(t, result.Errors[0].Error(), "storage unavailable")
	assert.Equal(t, 2, result.Periods)
	assert.Equal(t, 1, result.Accounts)
}

func TestRunOnceCancelled(t *testing.T) {
	db, balances, budgets := setup(t)
	user := testutil.CreateTestUser(t, db)
	testutil.CreateTestCurrentAccount(t, db, user.ID, "0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReconciler(balances, budgets, 1, 0).RunOnce(ctx, time.Now())
	assert.Error(t, err)
}

func TestStartDisabled(t *testing.T) {
	_, balances, budgets := setup(t)
	done := make(chan struct{})
	go func() {
		NewReconciler(balances, budgets, 1, 0).Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start with zero interval must return immediately")
	}
}

func TestStartStopsWithContext(t *testing.T) {
	_, balances, budgets := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewReconciler(balances, budgets, 1, time.Hour).Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start must return once the context is cancelled")
	}
}
