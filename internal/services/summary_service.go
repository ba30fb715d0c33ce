package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"finledger/internal/cache"
	apperrors "finledger/internal/errors"
	"finledger/internal/logger"
	"finledger/internal/models"
)

const uncategorized = "Uncategorized"

// summaryService computes monthly summaries straight from the transactions
// table, reading through the summary cache.
type summaryService struct {
	db    *gorm.DB
	cache cache.SummaryCache
}

// NewSummaryService creates a new SummaryServicer. A nil cache disables caching.
func NewSummaryService(db *gorm.DB, summaries cache.SummaryCache) SummaryServicer {
	if summaries == nil {
		summaries = cache.NewNopSummaryCache()
	}
	return &summaryService{db: db, cache: summaries}
}

// GetMonthlySummary returns confirmed and pending totals of a month plus the
// confirmed amount per category. Cancelled and deleted rows are ignored.
func (s *summaryService) GetMonthlySummary(ctx context.Context, userID string, month, year int) (*MonthlySummary, error) {
	key := PeriodKey{Month: month, Year: year}
	if !key.Valid() {
		return nil, apperrors.ErrInvalidPeriod
	}

	log := logger.Named("summary")
	var cached MonthlySummary
	hit, err := s.cache.Get(ctx, userID, month, year, &cached)
	if err != nil {
		log.Warnw("summary cache read failed", "user_id", userID, "month", month, "year", year, "error", err)
	} else if hit {
		return &cached, nil
	}

	// Taken before the query so a write that lands during it voids our Set.
	gen, genErr := s.cache.Generation(ctx, userID, month, year)
	if genErr != nil {
		log.Warnw("summary cache generation read failed", "user_id", userID, "month", month, "year", year, "error", genErr)
	}

	start, end := key.Bounds()
	var transactions []models.Transaction
	if err := s.db.WithContext(ctx).
		Preload("Category").
		Where("user_id = ? AND is_active = ? AND status <> ? AND date >= ? AND date < ?",
			userID, true, models.TransactionStatusCancelled, start, end).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := summarize(userID, key, transactions)

	if genErr == nil {
		if err := s.cache.Set(ctx, userID, month, year, gen, summary); err != nil {
			log.Warnw("summary cache write failed", "user_id", userID, "month", month, "year", year, "error", err)
		}
	}
	return summary, nil
}

type categoryKey struct {
	id   string
	kind models.TransactionKind
}

func summarize(userID string, key PeriodKey, transactions []models.Transaction) *MonthlySummary {
	summary := &MonthlySummary{
		UserID:           userID,
		Month:            key.Month,
		Year:             key.Year,
		ConfirmedIncome:  decimal.Zero,
		ConfirmedExpense: decimal.Zero,
		PendingIncome:    decimal.Zero,
		PendingExpense:   decimal.Zero,
		TransactionCount: len(transactions),
		ByCategory:       []CategoryTotal{},
	}

	totals := make(map[categoryKey]*CategoryTotal)
	for i := range transactions {
		t := &transactions[i]
		confirmed := t.Status == models.TransactionStatusConfirmed

		switch {
		case t.Kind == models.TransactionKindIncome && confirmed:
			summary.ConfirmedIncome = summary.ConfirmedIncome.Add(t.Amount)
		case t.Kind == models.TransactionKindIncome:
			summary.PendingIncome = summary.PendingIncome.Add(t.Amount)
		case confirmed:
			summary.ConfirmedExpense = summary.ConfirmedExpense.Add(t.Amount)
		default:
			summary.PendingExpense = summary.PendingExpense.Add(t.Amount)
		}
		if !confirmed {
			continue
		}

		ck := categoryKey{kind: t.Kind}
		if t.CategoryID != nil {
			ck.id = *t.CategoryID
		}
		total, ok := totals[ck]
		if !ok {
			total = &CategoryTotal{Kind: t.Kind, CategoryName: uncategorized, Total: decimal.Zero}
			if t.CategoryID != nil {
				id := *t.CategoryID
				total.CategoryID = &id
			}
			if t.Category != nil {
				total.CategoryName = t.Category.Name
			}
			totals[ck] = total
		}
		total.Total = total.Total.Add(t.Amount)
		total.Count++
	}

	for _, total := range totals {
		summary.ByCategory = append(summary.ByCategory, *total)
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		a, b := summary.ByCategory[i], summary.ByCategory[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if !a.Total.Equal(b.Total) {
			return a.Total.GreaterThan(b.Total)
		}
		return a.CategoryName < b.CategoryName
	})

	summary.NetBalance = summary.ConfirmedIncome.Sub(summary.ConfirmedExpense)
	return summary
}
