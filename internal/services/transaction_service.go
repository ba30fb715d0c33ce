package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finledger/internal/cache"
	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
)

// transactionService is the ledger: it owns the transaction rows and keeps
// balances, card limits and budget periods in step with them.
type transactionService struct {
	db           *gorm.DB
	balances     BalanceServicer
	creditLimits CreditLimitServicer
	budgets      BudgetServicer
	summaries    cache.SummaryCache
	observer     EffectObserver
}

// NewTransactionService creates a new TransactionServicer. A nil summaries
// cache disables caching and a nil observer falls back to logging.
func NewTransactionService(
	db *gorm.DB,
	balances BalanceServicer,
	creditLimits CreditLimitServicer,
	budgets BudgetServicer,
	summaries cache.SummaryCache,
	observer EffectObserver,
) TransactionServicer {
	if summaries == nil {
		summaries = cache.NewNopSummaryCache()
	}
	if observer == nil {
		observer = NewLoggingObserver()
	}
	return &transactionService{
		db:           db,
		balances:     balances,
		creditLimits: creditLimits,
		budgets:      budgets,
		summaries:    summaries,
		observer:     observer,
	}
}

// Create persists a new transaction and, when it is confirmed, applies its
// effect. Side-effect failures are reported to the observer and do not fail
// the call.
func (s *transactionService) Create(ctx context.Context, userID string, input CreateTransactionInput) (*models.Transaction, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if input.AccountID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account ID is required")
	}
	if !input.Kind.Valid() {
		return nil, apperrors.ErrInvalidTransactionKind
	}
	if input.Status == "" {
		input.Status = models.TransactionStatusConfirmed
	}
	if !input.Status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}
	if input.Date.IsZero() {
		input.Date = time.Now()
	}

	transaction := &models.Transaction{
		UserID:            userID,
		AccountID:         input.AccountID,
		CategoryID:        input.CategoryID,
		Kind:              input.Kind,
		Amount:            input.Amount,
		Description:       input.Description,
		Date:              input.Date.UTC(),
		Status:            input.Status,
		IsActive:          true,
		IsSalary:          input.IsSalary,
		SalaryInstallment: input.SalaryInstallment,
		IsInvoicePayment:  input.IsInvoicePayment,
		SourceCardID:      input.SourceCardID,
	}

	if err := s.checkOwnedAccount(ctx, userID, transaction.AccountID); err != nil {
		return nil, err
	}
	if transaction.CategoryID != nil {
		if err := s.checkOwnedCategory(ctx, userID, *transaction.CategoryID, transaction.Kind); err != nil {
			return nil, err
		}
	}
	if err := s.validateVariant(ctx, transaction); err != nil {
		return nil, err
	}
	var tags []models.Tag
	if input.TagIDs != nil {
		var err error
		if tags, err = s.ownedTags(ctx, userID, input.TagIDs); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	report := EffectReport{Operation: "create", TransactionID: transaction.ID, UserID: userID}
	if len(tags) > 0 {
		report.Add(s.replaceTags(ctx, transaction, tags))
	}
	s.execute(ctx, &report, planCreate(transaction))
	s.invalidate(ctx, &report, userID, transaction.Date)
	s.observer.Observe(ctx, report)

	return s.reload(ctx, transaction), nil
}

// Update applies patch to an active transaction and moves its effect
// according to the old and new status.
func (s *transactionService) Update(ctx context.Context, userID, transactionID string, patch TransactionPatch) (*models.Transaction, error) {
	before, err := s.findActive(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	after := *before
	if err := applyPatch(&after, patch); err != nil {
		return nil, err
	}
	if after.AccountID != before.AccountID {
		if err := s.checkOwnedAccount(ctx, userID, after.AccountID); err != nil {
			return nil, err
		}
	}
	if after.CategoryID != nil && (before.CategoryID == nil || *before.CategoryID != *after.CategoryID) {
		if err := s.checkOwnedCategory(ctx, userID, *after.CategoryID, after.Kind); err != nil {
			return nil, err
		}
	}
	if err := s.validateVariant(ctx, &after); err != nil {
		return nil, err
	}
	var tags []models.Tag
	if patch.TagIDs != nil {
		if tags, err = s.ownedTags(ctx, userID, patch.TagIDs); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", before.ID).
		Updates(map[string]interface{}{
			"account_id":         after.AccountID,
			"category_id":        after.CategoryID,
			"amount":             after.Amount,
			"description":        after.Description,
			"date":               after.Date,
			"status":             after.Status,
			"is_salary":          after.IsSalary,
			"salary_installment": after.SalaryInstallment,
			"is_invoice_payment": after.IsInvoicePayment,
			"source_card_id":     after.SourceCardID,
		}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	report := EffectReport{Operation: "update", TransactionID: before.ID, UserID: userID}
	if patch.TagIDs != nil {
		report.Add(s.replaceTags(ctx, &after, tags))
	}
	s.execute(ctx, &report, planUpdate(before, &after))
	s.invalidate(ctx, &report, userID, before.Date, after.Date)
	s.observer.Observe(ctx, report)

	return s.reload(ctx, &after), nil
}

// Delete soft-deletes a transaction, reversing its effect if it was confirmed.
// A deleted transaction cannot be updated or deleted again.
func (s *transactionService) Delete(ctx context.Context, userID, transactionID string) error {
	before, err := s.findActive(ctx, userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", before.ID).
		Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	report := EffectReport{Operation: "delete", TransactionID: before.ID, UserID: userID}
	s.execute(ctx, &report, planDelete(before))
	s.invalidate(ctx, &report, userID, before.Date)
	s.observer.Observe(ctx, report)
	return nil
}

// GetByID retrieves an active transaction of a user with its tags and category.
func (s *transactionService) GetByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Category").
		Where("id = ? AND user_id = ? AND is_active = ?", transactionID, userID, true).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// List retrieves a paginated, filtered list of a user's active transactions,
// newest first.
func (s *transactionService) List(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND is_active = ?", userID, true)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Tags").
		Order("date DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", f.FromDate.UTC())
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", f.ToDate.UTC())
	}
	if f.Before != nil {
		q = q.Where("date < ?", f.Before.UTC())
	}
	if f.Kind != nil {
		q = q.Where("kind = ?", *f.Kind)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	return q
}

// applyPatch copies the non-nil fields of patch onto t and normalizes the
// variant fields that the change makes meaningless.
func applyPatch(t *models.Transaction, patch TransactionPatch) error {
	if patch.AccountID != nil {
		if *patch.AccountID == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "account ID is required")
		}
		t.AccountID = *patch.AccountID
	}
	if patch.ClearCategory {
		t.CategoryID = nil
	} else if patch.CategoryID != nil {
		id := *patch.CategoryID
		t.CategoryID = &id
	}
	if patch.Amount != nil {
		if patch.Amount.LessThanOrEqual(decimal.Zero) {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		t.Amount = *patch.Amount
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Date != nil {
		if patch.Date.IsZero() {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "date must not be empty")
		}
		t.Date = patch.Date.UTC()
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return apperrors.ErrInvalidStatus
		}
		t.Status = *patch.Status
	}

	if patch.IsSalary != nil {
		t.IsSalary = *patch.IsSalary
		if !t.IsSalary && patch.SalaryInstallment == nil {
			t.SalaryInstallment = 0
		}
	}
	if patch.SalaryInstallment != nil {
		t.SalaryInstallment = *patch.SalaryInstallment
	}

	if patch.IsInvoicePayment != nil {
		t.IsInvoicePayment = *patch.IsInvoicePayment
		if !t.IsInvoicePayment && patch.SourceCardID == nil {
			t.SourceCardID = nil
		}
	}
	if patch.SourceCardID != nil {
		id := *patch.SourceCardID
		t.SourceCardID = &id
	}
	return nil
}

// validateVariant checks the income-only and expense-only fields. An invoice
// payment must name an owned credit card other than the funding account.
func (s *transactionService) validateVariant(ctx context.Context, t *models.Transaction) error {
	switch t.Kind {
	case models.TransactionKindIncome:
		if t.IsInvoicePayment || t.SourceCardID != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "invoice payment fields apply to expenses only")
		}
		if t.SalaryInstallment < 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "salary installment must not be negative")
		}
		if t.SalaryInstallment > 0 && !t.IsSalary {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "salary installment requires is_salary")
		}
		return nil

	case models.TransactionKindExpense:
		if t.IsSalary || t.SalaryInstallment != 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "salary fields apply to income only")
		}
		if !t.IsInvoicePayment {
			if t.SourceCardID != nil {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "source card requires is_invoice_payment")
			}
			return nil
		}
		if t.SourceCardID == nil || *t.SourceCardID == "" {
			return apperrors.ErrInvoicePaymentTarget
		}
		if *t.SourceCardID == t.AccountID {
			return apperrors.WithMessage(apperrors.ErrInvoicePaymentTarget, "an invoice payment cannot be funded by the card it pays")
		}

		var card models.Account
		err := s.db.WithContext(ctx).
			Preload("CreditCard").
			Where("id = ? AND user_id = ? AND type = ?", *t.SourceCardID, t.UserID, models.AccountTypeCreditCard).
			First(&card).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrCreditCardNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if card.CreditCard == nil {
			return apperrors.ErrCreditCardNotFound
		}
		return nil

	default:
		return apperrors.ErrInvalidTransactionKind
	}
}

func (s *transactionService) checkOwnedAccount(ctx context.Context, userID, accountID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND user_id = ? AND is_active = ?", accountID, userID, true).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

// checkOwnedCategory rejects categories owned by someone else and categories
// whose type does not match the transaction kind.
func (s *transactionService) checkOwnedCategory(ctx context.Context, userID, categoryID string, kind models.TransactionKind) error {
	var category models.Category
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", categoryID, userID).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if string(category.Type) != string(kind) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category type does not match transaction kind")
	}
	return nil
}

func (s *transactionService) findActive(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_active = ?", transactionID, userID, true).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// ownedTags loads the tags named by ids, rejecting ids the user does not own.
func (s *transactionService) ownedTags(ctx context.Context, userID string, ids []string) ([]models.Tag, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return []models.Tag{}, nil
	}

	var tags []models.Tag
	if err := s.db.WithContext(ctx).
		Where("id IN ? AND user_id = ?", unique, userID).
		Find(&tags).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(tags) != len(unique) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "one or more tags do not exist")
	}
	return tags, nil
}

// replaceTags sets the tag association of t to exactly tags.
func (s *transactionService) replaceTags(ctx context.Context, t *models.Transaction, tags []models.Tag) EffectResult {
	assoc := s.db.WithContext(ctx).Model(&models.Transaction{Base: models.Base{ID: t.ID}}).Association("Tags")

	var err error
	if len(tags) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(tags)
	}
	if err != nil {
		err = apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return EffectResult{Step: StepTags, Target: t.ID, Direction: "replace", Err: err}
}

// execute runs a plan: the reversal first, then the new effect.
func (s *transactionService) execute(ctx context.Context, report *EffectReport, plan effectPlan) {
	if plan.reverse != nil {
		report.Add(s.reverseEffect(ctx, *plan.reverse)...)
	}
	if plan.apply != nil {
		report.Add(s.applyEffect(ctx, *plan.apply)...)
	}
}

func (s *transactionService) applyEffect(ctx context.Context, e effect) []EffectResult {
	var results []EffectResult
	switch e.Kind {
	case models.TransactionKindIncome:
		results = append(results, s.adjustBalance(ctx, e.AccountID, e.Amount, BalanceCredit))
	case models.TransactionKindExpense:
		if e.IsInvoicePayment {
			results = append(results, s.creditLimits.ApplyInvoicePayment(ctx, e.AccountID, e.SourceCardID, e.Amount)...)
		} else {
			results = append(results, s.adjustBalance(ctx, e.AccountID, e.Amount, BalanceDebit))
		}
	}
	return append(results, s.adjustBudget(ctx, e, BudgetAdd))
}

func (s *transactionService) reverseEffect(ctx context.Context, e effect) []EffectResult {
	var results []EffectResult
	switch e.Kind {
	case models.TransactionKindIncome:
		results = append(results, s.adjustBalance(ctx, e.AccountID, e.Amount, BalanceDebit))
	case models.TransactionKindExpense:
		if e.IsInvoicePayment {
			results = append(results, s.creditLimits.ReverseInvoicePayment(ctx, e.AccountID, e.SourceCardID, e.Amount)...)
		} else {
			results = append(results, s.adjustBalance(ctx, e.AccountID, e.Amount, BalanceCredit))
		}
	}
	return append(results, s.adjustBudget(ctx, e, BudgetSubtract))
}

func (s *transactionService) adjustBalance(ctx context.Context, accountID string, amount decimal.Decimal, direction BalanceDirection) EffectResult {
	return EffectResult{
		Step:      StepBalance,
		Target:    accountID,
		Direction: string(direction),
		Amount:    amount,
		Err:       s.balances.Adjust(ctx, accountID, amount, direction),
	}
}

func (s *transactionService) adjustBudget(ctx context.Context, e effect, direction BudgetDirection) EffectResult {
	key := PeriodKeyOf(e.Date)
	return EffectResult{
		Step:      StepBudget,
		Target:    fmt.Sprintf("%04d-%02d/%s", key.Year, key.Month, e.Kind),
		Direction: string(direction),
		Amount:    e.Amount,
		Err:       s.budgets.ApplyDelta(ctx, e.UserID, e.Date, e.Amount, e.Kind, direction),
	}
}

// invalidate drops the cached summaries of every period the dates fall in.
func (s *transactionService) invalidate(ctx context.Context, report *EffectReport, userID string, dates ...time.Time) {
	seen := make(map[PeriodKey]struct{}, len(dates))
	for _, d := range dates {
		key := PeriodKeyOf(d)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if err := s.summaries.Invalidate(ctx, userID, key.Month, key.Year); err != nil {
			report.Add(EffectResult{
				Step:      StepSummaryCache,
				Target:    fmt.Sprintf("%04d-%02d", key.Year, key.Month),
				Direction: "invalidate",
				Err:       err,
			})
		}
	}
}

// reload returns the stored row with its associations, or t itself if the
// read fails; the write has already succeeded at this point.
func (s *transactionService) reload(ctx context.Context, t *models.Transaction) *models.Transaction {
	loaded, err := s.GetByID(ctx, t.UserID, t.ID)
	if err != nil {
		return t
	}
	return loaded
}
