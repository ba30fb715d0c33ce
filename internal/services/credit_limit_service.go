package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
)

// creditLimitService applies invoice payments: money leaves a funding account
// and the paid card regains available limit.
type creditLimitService struct {
	db       *gorm.DB
	balances BalanceServicer
}

// NewCreditLimitService creates a new CreditLimitServicer.
func NewCreditLimitService(db *gorm.DB, balances BalanceServicer) CreditLimitServicer {
	return &creditLimitService{db: db, balances: balances}
}

// ApplyInvoicePayment debits the funding account, then restores the card's
// available limit capped at its total limit. The two steps are independent:
// a failure in one does not stop the other.
func (s *creditLimitService) ApplyInvoicePayment(ctx context.Context, fundingAccountID, cardAccountID string, amount decimal.Decimal) []EffectResult {
	return []EffectResult{
		{
			Step:      StepBalance,
			Target:    fundingAccountID,
			Direction: string(BalanceDebit),
			Amount:    amount,
			Err:       s.balances.Adjust(ctx, fundingAccountID, amount, BalanceDebit),
		},
		{
			Step:      StepCreditLimit,
			Target:    cardAccountID,
			Direction: "restore",
			Amount:    amount,
			Err:       s.updateAvailable(ctx, cardAccountID, amount, RestoredLimit),
		},
	}
}

// ReverseInvoicePayment credits the funding account back, then reduces the
// card's available limit by the full amount, floored at zero.
//
// When the forward step was capped, the capped-off part is not remembered,
// so reversing can leave the card with less available limit than before the
// payment. This is kept as-is pending a product decision.
func (s *creditLimitService) ReverseInvoicePayment(ctx context.Context, fundingAccountID, cardAccountID string, amount decimal.Decimal) []EffectResult {
	return []EffectResult{
		{
			Step:      StepBalance,
			Target:    fundingAccountID,
			Direction: string(BalanceCredit),
			Amount:    amount,
			Err:       s.balances.Adjust(ctx, fundingAccountID, amount, BalanceCredit),
		},
		{
			Step:      StepCreditLimit,
			Target:    cardAccountID,
			Direction: "reduce",
			Amount:    amount,
			Err: s.updateAvailable(ctx, cardAccountID, amount, func(available, _, amount decimal.Decimal) decimal.Decimal {
				return ReducedLimit(available, amount)
			}),
		},
	}
}

// updateAvailable is a read-modify-write of the card's available limit.
func (s *creditLimitService) updateAvailable(
	ctx context.Context,
	cardAccountID string,
	amount decimal.Decimal,
	next func(available, total, amount decimal.Decimal) decimal.Decimal,
) error {
	var detail models.CreditCardDetail
	if err := s.db.WithContext(ctx).Where("account_id = ?", cardAccountID).First(&detail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCreditCardNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	available := next(detail.AvailableLimit, detail.TotalLimit, amount)
	if err := s.db.WithContext(ctx).Model(&detail).Update("available_limit", available).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RestoredLimit returns min(available+amount, total).
func RestoredLimit(available, total, amount decimal.Decimal) decimal.Decimal {
	return decimal.Min(available.Add(amount), total)
}

// ReducedLimit returns max(available-amount, 0).
func ReducedLimit(available, amount decimal.Decimal) decimal.Decimal {
	return decimal.Max(available.Sub(amount), decimal.Zero)
}
