package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind selects the ledger variant: income or expense.
type TransactionKind string

const (
	TransactionKindIncome  TransactionKind = "income"
	TransactionKindExpense TransactionKind = "expense"
)

// Valid reports whether k is a known transaction kind.
func (k TransactionKind) Valid() bool {
	return k == TransactionKindIncome || k == TransactionKindExpense
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusConfirmed, TransactionStatusCancelled:
		return true
	}
	return false
}

// Transaction is a single income or expense entry. Its monetary effect on
// account balances and budget periods exists only while it is confirmed and
// active.
type Transaction struct {
	Base
	UserID      string            `gorm:"type:uuid;not null;index:idx_transactions_user_date,priority:1" json:"user_id"`
	AccountID   string            `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID  *string           `gorm:"type:uuid" json:"category_id,omitempty"`
	Kind        TransactionKind   `gorm:"not null" json:"kind"`
	Amount      decimal.Decimal   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Description string            `json:"description"`
	Date        time.Time         `gorm:"not null;index:idx_transactions_user_date,priority:2" json:"date"`
	Status      TransactionStatus `gorm:"not null;default:'confirmed'" json:"status"`
	IsActive    bool              `gorm:"not null;default:true" json:"is_active"`

	// Income only
	IsSalary          bool `json:"is_salary,omitempty"`
	SalaryInstallment int  `json:"salary_installment,omitempty"`

	// Expense only
	IsInvoicePayment bool    `json:"is_invoice_payment,omitempty"`
	SourceCardID     *string `gorm:"type:uuid" json:"source_card_id,omitempty"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags     []Tag     `gorm:"many2many:transaction_tags" json:"tags,omitempty"`
}

// IsConfirmed reports whether the transaction currently carries a monetary effect.
func (t *Transaction) IsConfirmed() bool {
	return t.IsActive && t.Status == TransactionStatusConfirmed
}
