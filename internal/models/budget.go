package models

import "github.com/shopspring/decimal"

// BudgetPeriod is the per-user, per-calendar-month rollup of confirmed income
// and expense. It is derived data: Reconcile rebuilds the totals from the
// transactions table. NetBalance always equals TotalIncome - TotalExpense.
type BudgetPeriod struct {
	Base
	UserID       string          `gorm:"type:uuid;not null;uniqueIndex:uq_budget_periods_user_month_year,priority:1" json:"user_id"`
	Month        int             `gorm:"not null;uniqueIndex:uq_budget_periods_user_month_year,priority:2" json:"month"`
	Year         int             `gorm:"not null;uniqueIndex:uq_budget_periods_user_month_year,priority:3" json:"year"`
	TotalIncome  decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_income"`
	TotalExpense decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_expense"`
	NetBalance   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"net_balance"`
	SavingsGoal  decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"savings_goal"`
}

// Recompute derives NetBalance from the two totals.
func (p *BudgetPeriod) Recompute() {
	p.NetBalance = p.TotalIncome.Sub(p.TotalExpense)
}
