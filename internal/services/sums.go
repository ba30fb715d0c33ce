package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
)

// sumAmounts adds up the amount of every transaction matched by q. Summing in
// Go keeps decimal precision identical on PostgreSQL and SQLite.
func sumAmounts(q *gorm.DB) (decimal.Decimal, error) {
	var rows []models.Transaction
	if err := q.Model(&models.Transaction{}).Select("amount").Find(&rows).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := decimal.Zero
	for i := range rows {
		total = total.Add(rows[i].Amount)
	}
	return total, nil
}
