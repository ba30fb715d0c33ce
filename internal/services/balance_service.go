package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
)

// balanceService mutates the cached balance column of accounts.
type balanceService struct {
	db *gorm.DB
}

// NewBalanceService creates a new BalanceServicer.
func NewBalanceService(db *gorm.DB) BalanceServicer {
	return &balanceService{db: db}
}

// Adjust reads the current balance, applies the signed amount and writes it
// back. There is no compare-and-swap: concurrent adjustments of the same
// account race and the last write wins.
func (s *balanceService) Adjust(ctx context.Context, accountID string, amount decimal.Decimal, direction BalanceDirection) error {
	delta, err := signedDelta(amount, direction)
	if err != nil {
		return err
	}

	var account models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrAccountNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	next, err := nextBalance(account.Type, account.Balance, delta)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&account).Update("balance", next).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// signedDelta turns a positive amount and a direction into a signed delta.
func signedDelta(amount decimal.Decimal, direction BalanceDirection) (decimal.Decimal, error) {
	switch direction {
	case BalanceCredit:
		return amount, nil
	case BalanceDebit:
		return amount.Neg(), nil
	default:
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown balance direction: "+string(direction))
	}
}

// nextBalance applies delta according to the account variant. Every variant
// books the delta as-is; non-negativity of current and cash accounts is
// enforced by input validation, never re-checked here.
func nextBalance(accountType models.AccountType, balance, delta decimal.Decimal) (decimal.Decimal, error) {
	switch accountType {
	case models.AccountTypeCurrent, models.AccountTypeCash, models.AccountTypeCreditCard:
		return balance.Add(delta), nil
	default:
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidAccountType, "unsupported account type: "+string(accountType))
	}
}

// ReconcileAccount recomputes an account balance from its opening balance and
// every active, confirmed transaction booked against it. Invoice payments are
// expenses of their funding account, so they are covered by the expense sum.
func (s *balanceService) ReconcileAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	income, err := s.sumConfirmed(ctx, account.ID, models.TransactionKindIncome)
	if err != nil {
		return nil, err
	}
	expense, err := s.sumConfirmed(ctx, account.ID, models.TransactionKindExpense)
	if err != nil {
		return nil, err
	}

	balance := account.OpeningBalance.Add(income).Sub(expense)
	if err := s.db.WithContext(ctx).Model(&account).Update("balance", balance).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	account.Balance = balance
	return &account, nil
}

func (s *balanceService) sumConfirmed(ctx context.Context, accountID string, kind models.TransactionKind) (decimal.Decimal, error) {
	return sumAmounts(s.db.WithContext(ctx).
		Where("account_id = ? AND kind = ? AND status = ? AND is_active = ?",
			accountID, kind, models.TransactionStatusConfirmed, true))
}

// ReconcileOwnerAccounts reconciles every active account of a user. It keeps
// going past individual failures and returns them joined.
func (s *balanceService) ReconcileOwnerAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at").
		Pluck("id", &ids).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	accounts := make([]models.Account, 0, len(ids))
	var errs []error
	for _, id := range ids {
		account, err := s.ReconcileAccount(ctx, userID, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		accounts = append(accounts, *account)
	}
	return accounts, errors.Join(errs...)
}

// ListOwners returns the distinct users that own at least one active account.
func (s *balanceService) ListOwners(ctx context.Context) ([]string, error) {
	var owners []string
	if err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("is_active = ?", true).
		Distinct("user_id").
		Order("user_id").
		Pluck("user_id", &owners).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return owners, nil
}
