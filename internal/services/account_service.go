package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
)

const defaultCurrency = "BRL"

// accountService handles account setup. Balances are never written here
// after creation; the ledger and reconciliation own them.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount opens an account whose balance starts at its opening balance.
// Credit card accounts also get a limit detail with the full limit available.
func (s *accountService) CreateAccount(ctx context.Context, userID string, input CreateAccountInput) (*models.Account, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if !input.Type.Valid() {
		return nil, apperrors.ErrInvalidAccountType
	}

	currency := strings.ToUpper(input.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	account := &models.Account{
		UserID:         userID,
		Name:           name,
		Type:           input.Type,
		Balance:        input.OpeningBalance,
		OpeningBalance: input.OpeningBalance,
		Currency:       currency,
		IsActive:       true,
	}

	var detail *models.CreditCardDetail
	if input.Type == models.AccountTypeCreditCard {
		if !input.CreditLimit.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "credit card accounts need a positive credit limit")
		}
		if !validDay(input.ClosingDay) || !validDay(input.DueDay) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "closing_day and due_day must be between 1 and 31")
		}
		detail = &models.CreditCardDetail{
			TotalLimit:     input.CreditLimit,
			AvailableLimit: input.CreditLimit,
			ClosingDay:     input.ClosingDay,
			DueDay:         input.DueDay,
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("CreditCard").Create(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if detail != nil {
			detail.AccountID = account.ID
			if err := tx.Create(detail).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	account.CreditCard = detail
	return account, nil
}

func validDay(day int) bool {
	return day == 0 || (day >= 1 && day <= 31)
}

// GetUserAccounts retrieves a paginated list of active accounts for a user.
func (s *accountService) GetUserAccounts(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.WithContext(ctx).Model(&models.Account{}).Where("user_id = ? AND is_active = ?", userID, true)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Preload("CreditCard").
		Scopes(pagination.Paginate(page)).
		Order("created_at ASC, id ASC").
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an active account by ID for a specific user.
func (s *accountService) GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error) {
	return s.findOwned(ctx, userID, accountID, true)
}

// findOwned loads an owned account with its card detail. activeOnly=false
// also finds deactivated accounts, which only UpdateAccount may touch.
func (s *accountService) findOwned(ctx context.Context, userID, accountID string, activeOnly bool) (*models.Account, error) {
	q := s.db.WithContext(ctx).Preload("CreditCard").Where("id = ? AND user_id = ?", accountID, userID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var account models.Account
	if err := q.First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount renames, deactivates or reactivates an account and adjusts
// the total limit of a credit card. Raising the total limit raises the
// available limit by the same amount; lowering it clamps the available limit
// to the new total.
func (s *accountService) UpdateAccount(ctx context.Context, userID, accountID string, fields AccountUpdateFields) (*models.Account, error) {
	account, err := s.findOwned(ctx, userID, accountID, false)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name must not be empty")
		}
		updates["name"] = name
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}

	var limitUpdates map[string]interface{}
	if fields.CreditLimit != nil {
		if account.Type != models.AccountTypeCreditCard || account.CreditCard == nil {
			return nil, apperrors.ErrCreditCardNotFound
		}
		if !fields.CreditLimit.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "credit limit must be positive")
		}
		detail := account.CreditCard
		available := detail.AvailableLimit.Add(fields.CreditLimit.Sub(detail.TotalLimit))
		available = decimal.Max(decimal.Min(available, *fields.CreditLimit), decimal.Zero)
		limitUpdates = map[string]interface{}{
			"total_limit":     *fields.CreditLimit,
			"available_limit": available,
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(account).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if limitUpdates != nil {
			if err := tx.Model(account.CreditCard).Updates(limitUpdates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var fresh models.Account
	if err := s.db.WithContext(ctx).Preload("CreditCard").Where("id = ?", account.ID).First(&fresh).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &fresh, nil
}
