package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
)

// PeriodKey identifies a calendar month.
type PeriodKey struct {
	Month int
	Year  int
}

// PeriodKeyOf maps a transaction date to its budget period. It uses the date
// itself, never the wall clock, in UTC.
func PeriodKeyOf(date time.Time) PeriodKey {
	d := date.UTC()
	return PeriodKey{Month: int(d.Month()), Year: d.Year()}
}

// Valid reports whether the key names a real month.
func (k PeriodKey) Valid() bool {
	return k.Month >= 1 && k.Month <= 12 && k.Year > 0
}

// Bounds returns the half-open UTC interval [start, end) covered by the period.
func (k PeriodKey) Bounds() (time.Time, time.Time) {
	start := time.Date(k.Year, time.Month(k.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Previous returns the month before k.
func (k PeriodKey) Previous() PeriodKey {
	start, _ := k.Bounds()
	return PeriodKeyOf(start.AddDate(0, -1, 0))
}

// budgetService handles budget-period business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// FindOrCreatePeriod returns the unique period row for (user, month, year),
// inserting a zeroed row on first reference.
func (s *budgetService) FindOrCreatePeriod(ctx context.Context, userID string, month, year int) (*models.BudgetPeriod, error) {
	key := PeriodKey{Month: month, Year: year}
	if !key.Valid() {
		return nil, apperrors.ErrInvalidPeriod
	}

	period, err := s.findPeriod(ctx, userID, key)
	if err == nil {
		return period, nil
	}
	if !errors.Is(err, apperrors.ErrBudgetPeriodNotFound) {
		return nil, err
	}

	fresh := &models.BudgetPeriod{
		UserID:       userID,
		Month:        key.Month,
		Year:         key.Year,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		NetBalance:   decimal.Zero,
		SavingsGoal:  decimal.Zero,
	}
	// A concurrent request may insert the same key first; the unique index
	// turns that into a no-op and the re-read below picks up its row.
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(fresh).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.findPeriod(ctx, userID, key)
}

func (s *budgetService) findPeriod(ctx context.Context, userID string, key PeriodKey) (*models.BudgetPeriod, error) {
	var period models.BudgetPeriod
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND month = ? AND year = ?", userID, key.Month, key.Year).
		First(&period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &period, nil
}

// ApplyDelta incrementally moves one total of the period containing date and
// recomputes the net balance. It is a read-modify-write on the period row,
// not coordinated with the account mutation that accompanies it.
func (s *budgetService) ApplyDelta(
	ctx context.Context,
	userID string,
	date time.Time,
	amount decimal.Decimal,
	kind models.TransactionKind,
	direction BudgetDirection,
) error {
	var delta decimal.Decimal
	switch direction {
	case BudgetAdd:
		delta = amount
	case BudgetSubtract:
		delta = amount.Neg()
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown budget direction: "+string(direction))
	}

	key := PeriodKeyOf(date)
	period, err := s.FindOrCreatePeriod(ctx, userID, key.Month, key.Year)
	if err != nil {
		return err
	}

	switch kind {
	case models.TransactionKindIncome:
		period.TotalIncome = period.TotalIncome.Add(delta)
	case models.TransactionKindExpense:
		period.TotalExpense = period.TotalExpense.Add(delta)
	default:
		return apperrors.ErrInvalidTransactionKind
	}
	period.Recompute()

	if err := s.db.WithContext(ctx).Model(period).Updates(map[string]interface{}{
		"total_income":  period.TotalIncome,
		"total_expense": period.TotalExpense,
		"net_balance":   period.NetBalance,
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Reconcile recomputes the period totals from every active, confirmed
// transaction dated inside it and upserts the result. Running it twice yields
// the same row. The savings goal is left untouched.
func (s *budgetService) Reconcile(ctx context.Context, userID string, month, year int) (*models.BudgetPeriod, error) {
	key := PeriodKey{Month: month, Year: year}
	if !key.Valid() {
		return nil, apperrors.ErrInvalidPeriod
	}
	start, end := key.Bounds()

	confirmedIn := func(kind models.TransactionKind) *gorm.DB {
		return s.db.WithContext(ctx).Where(
			"user_id = ? AND kind = ? AND status = ? AND is_active = ? AND date >= ? AND date < ?",
			userID, kind, models.TransactionStatusConfirmed, true, start, end,
		)
	}

	income, err := sumAmounts(confirmedIn(models.TransactionKindIncome))
	if err != nil {
		return nil, err
	}
	expense, err := sumAmounts(confirmedIn(models.TransactionKindExpense))
	if err != nil {
		return nil, err
	}

	period := &models.BudgetPeriod{
		UserID:       userID,
		Month:        key.Month,
		Year:         key.Year,
		TotalIncome:  income,
		TotalExpense: expense,
		SavingsGoal:  decimal.Zero,
	}
	period.Recompute()

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "month"}, {Name: "year"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_income", "total_expense", "net_balance", "updated_at"}),
	}).Create(period).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.findPeriod(ctx, userID, key)
}

// UpdateSavingsGoal sets the savings goal of a period, creating it if needed.
func (s *budgetService) UpdateSavingsGoal(ctx context.Context, userID string, month, year int, goal decimal.Decimal) (*models.BudgetPeriod, error) {
	if goal.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "savings goal must not be negative")
	}

	period, err := s.FindOrCreatePeriod(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(period).Update("savings_goal", goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	period.SavingsGoal = goal
	return period, nil
}

// ListPeriods returns the existing periods of a year ordered by month.
func (s *budgetService) ListPeriods(ctx context.Context, userID string, year int) ([]models.BudgetPeriod, error) {
	if year <= 0 {
		return nil, apperrors.ErrInvalidPeriod
	}

	var periods []models.BudgetPeriod
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND year = ?", userID, year).
		Order("month ASC").
		Find(&periods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return periods, nil
}
