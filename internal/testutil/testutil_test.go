package testutil_test

import (
	"testing"
	"time"

	"finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"users", "accounts", "credit_card_details", "categories", "tags", "transactions", "transaction_tags", "budget_periods"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestUser(t, first)

	var count int64
	if err := second.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected isolated database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	account := testutil.CreateTestCurrentAccount(t, db, user.ID, "1000")
	reloaded := testutil.ReloadAccount(t, db, account.ID)
	testutil.AssertDecimal(t, "balance", reloaded.Balance, "1000")
	testutil.AssertDecimal(t, "opening balance", reloaded.OpeningBalance, "1000")

	card, detail := testutil.CreateTestCreditCard(t, db, user.ID, "5000", "3000")
	if card.Type != models.AccountTypeCreditCard {
		t.Errorf("expected credit card account, got %s", card.Type)
	}
	stored := testutil.ReloadCreditCard(t, db, card.ID)
	if stored.ID != detail.ID {
		t.Errorf("expected detail %s, got %s", detail.ID, stored.ID)
	}
	testutil.AssertDecimal(t, "available", stored.AvailableLimit, "3000")

	tx := testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.TransactionKindExpense, models.TransactionStatusConfirmed, "12.50", time.Now())
	testutil.AssertDecimal(t, "amount", tx.Amount, "12.5")
	if !tx.IsConfirmed() {
		t.Error("expected seeded transaction to be confirmed")
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrAccountNotFound, "custom message")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
