package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finledger/internal/models"
	"finledger/internal/testutil"
)

func planRow(status models.TransactionStatus) *models.Transaction {
	return &models.Transaction{
		Base:      models.Base{ID: "tx"},
		UserID:    "user",
		AccountID: "acct-a",
		Kind:      models.TransactionKindExpense,
		Amount:    testutil.Dec("300"),
		Date:      march2024,
		Status:    status,
		IsActive:  true,
	}
}

func TestPlanCreate(t *testing.T) {
	for _, status := range []models.TransactionStatus{
		models.TransactionStatusPending,
		models.TransactionStatusConfirmed,
		models.TransactionStatusCancelled,
	} {
		plan := planCreate(planRow(status))
		assert.Nil(t, plan.reverse, string(status))
		if status == models.TransactionStatusConfirmed {
			require.NotNil(t, plan.apply)
			assert.Equal(t, "acct-a", plan.apply.AccountID)
		} else {
			assert.True(t, plan.empty(), string(status))
		}
	}
}

func TestPlanUpdateStatusMatrix(t *testing.T) {
	statuses := []models.TransactionStatus{
		models.TransactionStatusPending,
		models.TransactionStatusConfirmed,
		models.TransactionStatusCancelled,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				plan := planUpdate(planRow(from), planRow(to))

				wasOn := from == models.TransactionStatusConfirmed
				isOn := to == models.TransactionStatusConfirmed
				switch {
				case wasOn && !isOn:
					require.NotNil(t, plan.reverse)
					assert.Nil(t, plan.apply)
				case !wasOn && isOn:
					assert.Nil(t, plan.reverse)
					require.NotNil(t, plan.apply)
				default:
					// Unchanged confirmed rows and moves between inactive
					// statuses carry no effect.
					assert.True(t, plan.empty())
				}
			})
		}
	}
}

func TestPlanUpdateConfirmedEdits(t *testing.T) {
	edits := map[string]func(*models.Transaction){
		"amount":  func(tx *models.Transaction) { tx.Amount = testutil.Dec("450") },
		"account": func(tx *models.Transaction) { tx.AccountID = "acct-b" },
		"date":    func(tx *models.Transaction) { tx.Date = tx.Date.AddDate(0, 1, 0) },
		"invoice_flag": func(tx *models.Transaction) {
			card := "card"
			tx.IsInvoicePayment = true
			tx.SourceCardID = &card
		},
	}

	for name, edit := range edits {
		t.Run(name, func(t *testing.T) {
			before := planRow(models.TransactionStatusConfirmed)
			after := planRow(models.TransactionStatusConfirmed)
			edit(after)

			plan := planUpdate(before, after)
			require.NotNil(t, plan.reverse)
			require.NotNil(t, plan.apply)
			assert.Equal(t, effectOf(before), *plan.reverse)
			assert.Equal(t, effectOf(after), *plan.apply)
		})
	}

	t.Run("description_only", func(t *testing.T) {
		before := planRow(models.TransactionStatusConfirmed)
		after := planRow(models.TransactionStatusConfirmed)
		after.Description = "renamed"
		assert.True(t, planUpdate(before, after).empty())
	})

	t.Run("same_instant_other_zone", func(t *testing.T) {
		before := planRow(models.TransactionStatusConfirmed)
		after := planRow(models.TransactionStatusConfirmed)
		after.Date = march2024.In(time.FixedZone("BRT", -3*60*60))
		assert.True(t, planUpdate(before, after).empty())
	})

	t.Run("amount_scale_only", func(t *testing.T) {
		before := planRow(models.TransactionStatusConfirmed)
		after := planRow(models.TransactionStatusConfirmed)
		after.Amount = testutil.Dec("300.00")
		assert.True(t, planUpdate(before, after).empty())
	})
}

func TestPlanDelete(t *testing.T) {
	confirmed := planRow(models.TransactionStatusConfirmed)
	plan := planDelete(confirmed)
	require.NotNil(t, plan.reverse)
	assert.Nil(t, plan.apply)
	assert.True(t, plan.reverse.Amount.Equal(testutil.Dec("300")))

	assert.True(t, planDelete(planRow(models.TransactionStatusPending)).empty())
	assert.True(t, planDelete(planRow(models.TransactionStatusCancelled)).empty())

	inactive := planRow(models.TransactionStatusConfirmed)
	inactive.IsActive = false
	assert.True(t, planDelete(inactive).empty())
}
