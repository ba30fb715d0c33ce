package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"finledger/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{
		Email:    fmt.Sprintf("user%d@test.com", nextID()),
		Name:     "Test User",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates an active account of the given type whose
// balance and opening balance are both set to balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string, accountType models.AccountType, balance string) *models.Account {
	t.Helper()

	amount := decimal.RequireFromString(balance)
	account := &models.Account{
		UserID:         userID,
		Name:           fmt.Sprintf("Test Account %d", nextID()),
		Type:           accountType,
		Balance:        amount,
		OpeningBalance: amount,
		Currency:       "BRL",
		IsActive:       true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCurrentAccount creates a current account with the given balance.
func CreateTestCurrentAccount(t *testing.T, db *gorm.DB, userID string, balance string) *models.Account {
	t.Helper()
	return CreateTestAccount(t, db, userID, models.AccountTypeCurrent, balance)
}

// CreateTestCreditCard creates a credit card account with its limit detail.
func CreateTestCreditCard(t *testing.T, db *gorm.DB, userID string, total, available string) (*models.Account, *models.CreditCardDetail) {
	t.Helper()

	account := CreateTestAccount(t, db, userID, models.AccountTypeCreditCard, "0")
	detail := &models.CreditCardDetail{
		AccountID:      account.ID,
		TotalLimit:     decimal.RequireFromString(total),
		AvailableLimit: decimal.RequireFromString(available),
		ClosingDay:     1,
		DueDay:         10,
	}
	if err := db.Create(detail).Error; err != nil {
		t.Fatalf("failed to create test credit card detail: %v", err)
	}
	return account, detail
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTag creates a tag owned by userID.
func CreateTestTag(t *testing.T, db *gorm.DB, userID string) *models.Tag {
	t.Helper()

	tag := &models.Tag{
		UserID: userID,
		Name:   fmt.Sprintf("tag-%d", nextID()),
	}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create test tag: %v", err)
	}
	return tag
}

// CreateTestTransaction inserts a transaction row directly, without touching
// balances or budget periods. Useful for seeding reconciliation inputs.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, kind models.TransactionKind, status models.TransactionStatus, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:    userID,
		AccountID: accountID,
		Kind:      kind,
		Amount:    decimal.RequireFromString(amount),
		Date:      date.UTC(),
		Status:    status,
		IsActive:  true,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// Deactivate soft-deletes a seeded transaction without reversing its effect.
func Deactivate(t *testing.T, db *gorm.DB, tx *models.Transaction) {
	t.Helper()

	if err := db.Model(tx).Update("is_active", false).Error; err != nil {
		t.Fatalf("failed to deactivate transaction: %v", err)
	}
}

// ReloadAccount re-reads an account from the database.
func ReloadAccount(t *testing.T, db *gorm.DB, id string) *models.Account {
	t.Helper()

	var account models.Account
	if err := db.Where("id = ?", id).First(&account).Error; err != nil {
		t.Fatalf("failed to reload account %s: %v", id, err)
	}
	return &account
}

// ReloadCreditCard re-reads the credit card detail of an account.
func ReloadCreditCard(t *testing.T, db *gorm.DB, accountID string) *models.CreditCardDetail {
	t.Helper()

	var detail models.CreditCardDetail
	if err := db.Where("account_id = ?", accountID).First(&detail).Error; err != nil {
		t.Fatalf("failed to reload credit card %s: %v", accountID, err)
	}
	return &detail
}
