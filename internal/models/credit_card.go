package models

import "github.com/shopspring/decimal"

// CreditCardDetail holds the limit data of a credit card account.
// Intended invariant: 0 <= AvailableLimit <= TotalLimit.
type CreditCardDetail struct {
	Base
	AccountID      string          `gorm:"type:uuid;not null;uniqueIndex" json:"account_id"`
	TotalLimit     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_limit"`
	AvailableLimit decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"available_limit"`
	ClosingDay     int             `json:"closing_day,omitempty"`
	DueDay         int             `json:"due_day,omitempty"`
}
