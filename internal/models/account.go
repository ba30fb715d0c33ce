package models

import "github.com/shopspring/decimal"

// AccountType is the closed set of account variants.
type AccountType string

const (
	AccountTypeCurrent    AccountType = "current_account"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeCash       AccountType = "cash"
)

// Valid reports whether t is one of the known account variants.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeCurrent, AccountTypeCreditCard, AccountTypeCash:
		return true
	}
	return false
}

// Account represents a financial account in the system. Balance is a cached
// projection of the confirmed transactions booked against the account on top
// of OpeningBalance.
type Account struct {
	Base
	UserID         string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name           string          `gorm:"not null" json:"name"`
	Type           AccountType     `gorm:"not null" json:"type"`
	Balance        decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"opening_balance"`
	Currency       string          `gorm:"size:3;not null;default:'BRL'" json:"currency"`
	IsActive       bool            `gorm:"not null;default:true" json:"is_active"`

	// Only set for credit card accounts
	CreditCard *CreditCardDetail `gorm:"foreignKey:AccountID" json:"credit_card,omitempty"`
}
