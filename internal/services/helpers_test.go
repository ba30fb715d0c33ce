package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"finledger/internal/models"
	"finledger/internal/testutil"
)

// recordingObserver keeps every report it receives.
type recordingObserver struct {
	mu      sync.Mutex
	reports []EffectReport
}

func (o *recordingObserver) Observe(_ context.Context, report EffectReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reports = append(o.reports, report)
}

func (o *recordingObserver) last(t *testing.T) EffectReport {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.reports) == 0 {
		t.Fatal("expected at least one effect report")
	}
	return o.reports[len(o.reports)-1]
}

// ledgerFixture wires the ledger to real services over a test database.
type ledgerFixture struct {
	db       *gorm.DB
	balances BalanceServicer
	budgets  BudgetServicer
	ledger   TransactionServicer
	observer *recordingObserver
	user     *models.User
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	balances := NewBalanceService(db)
	budgets := NewBudgetService(db)
	observer := &recordingObserver{}
	return &ledgerFixture{
		db:       db,
		balances: balances,
		budgets:  budgets,
		ledger:   NewTransactionService(db, balances, NewCreditLimitService(db, balances), budgets, nil, observer),
		observer: observer,
		user:     testutil.CreateTestUser(t, db),
	}
}

// period returns the stored budget period of date, creating it if needed.
func (f *ledgerFixture) period(t *testing.T, date time.Time) *models.BudgetPeriod {
	t.Helper()
	key := PeriodKeyOf(date)
	p, err := f.budgets.FindOrCreatePeriod(context.Background(), f.user.ID, key.Month, key.Year)
	testutil.AssertNoError(t, err)
	return p
}

func (f *ledgerFixture) expense(accountID, amount string, date time.Time) CreateTransactionInput {
	return CreateTransactionInput{
		AccountID: accountID,
		Kind:      models.TransactionKindExpense,
		Amount:    testutil.Dec(amount),
		Date:      date,
	}
}

func (f *ledgerFixture) income(accountID, amount string, date time.Time) CreateTransactionInput {
	return CreateTransactionInput{
		AccountID: accountID,
		Kind:      models.TransactionKindIncome,
		Amount:    testutil.Dec(amount),
		Date:      date,
	}
}

func assertNetInvariant(t *testing.T, p *models.BudgetPeriod) {
	t.Helper()
	if !p.NetBalance.Equal(p.TotalIncome.Sub(p.TotalExpense)) {
		t.Errorf("net balance %s != income %s - expense %s", p.NetBalance, p.TotalIncome, p.TotalExpense)
	}
}

func statusPtr(s models.TransactionStatus) *models.TransactionStatus { return &s }

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

var march2024 = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
