package services

import (
	"context"
	"testing"

	"finledger/internal/testutil"
	"finledger/internal/uuid"
)

func TestLimitClamps(t *testing.T) {
	tests := []struct {
		name      string
		available string
		total     string
		amount    string
		restored  string
		reduced   string
	}{
		{"within_limit", "3000", "5000", "1000", "4000", "2000"},
		{"restore_capped_at_total", "3000", "5000", "3000", "5000", "0"},
		{"reduce_floored_at_zero", "500", "5000", "800", "1300", "0"},
		{"exact_fill", "0", "100", "100", "100", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			available, total, amount := testutil.Dec(tt.available), testutil.Dec(tt.total), testutil.Dec(tt.amount)
			testutil.AssertDecimal(t, "restored", RestoredLimit(available, total, amount), tt.restored)
			testutil.AssertDecimal(t, "reduced", ReducedLimit(available, amount), tt.reduced)
		})
	}
}

func TestInvoicePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("apply_then_reverse", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		balances := NewBalanceService(db)
		svc := NewCreditLimitService(db, balances)
		user := testutil.CreateTestUser(t, db)
		funding := testutil.CreateTestCurrentAccount(t, db, user.ID, "2000")
		card, _ := testutil.CreateTestCreditCard(t, db, user.ID, "5000", "3000")

		results := svc.ApplyInvoicePayment(ctx, funding.ID, card.ID, testutil.Dec("1000"))
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		for _, r := range results {
			testutil.AssertNoError(t, r.Err)
		}
		testutil.AssertDecimal(t, "funding", testutil.ReloadAccount(t, db, funding.ID).Balance, "1000")
		testutil.AssertDecimal(t, "available", testutil.ReloadCreditCard(t, db, card.ID).AvailableLimit, "4000")

		for _, r := range svc.ReverseInvoicePayment(ctx, funding.ID, card.ID, testutil.Dec("1000")) {
			testutil.AssertNoError(t, r.Err)
		}
		testutil.AssertDecimal(t, "funding", testutil.ReloadAccount(t, db, funding.ID).Balance, "2000")
		testutil.AssertDecimal(t, "available", testutil.ReloadCreditCard(t, db, card.ID).AvailableLimit, "3000")
	})

	t.Run("clamped_payment_reverses_lossily", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		balances := NewBalanceService(db)
		svc := NewCreditLimitService(db, balances)
		user := testutil.CreateTestUser(t, db)
		funding := testutil.CreateTestCurrentAccount(t, db, user.ID, "10000")
		card, _ := testutil.CreateTestCreditCard(t, db, user.ID, "5000", "3000")

		svc.ApplyInvoicePayment(ctx, funding.ID, card.ID, testutil.Dec("3000"))
		testutil.AssertDecimal(t, "after payment", testutil.ReloadCreditCard(t, db, card.ID).AvailableLimit, "5000")

		svc.ReverseInvoicePayment(ctx, funding.ID, card.ID, testutil.Dec("3000"))
		testutil.AssertDecimal(t, "after reversal", testutil.ReloadCreditCard(t, db, card.ID).AvailableLimit, "2000")
		testutil.AssertDecimal(t, "funding restored", testutil.ReloadAccount(t, db, funding.ID).Balance, "10000")
	})

	t.Run("missing_card_does_not_block_debit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		balances := NewBalanceService(db)
		svc := NewCreditLimitService(db, balances)
		user := testutil.CreateTestUser(t, db)
		funding := testutil.CreateTestCurrentAccount(t, db, user.ID, "2000")

		results := svc.ApplyInvoicePayment(ctx, funding.ID, uuid.New(), testutil.Dec("500"))
		testutil.AssertNoError(t, results[0].Err)
		testutil.AssertAppError(t, results[1].Err, "CREDIT_CARD_NOT_FOUND")
		if results[1].Step != StepCreditLimit {
			t.Errorf("expected credit limit step, got %s", results[1].Step)
		}
		testutil.AssertDecimal(t, "funding", testutil.ReloadAccount(t, db, funding.ID).Balance, "1500")
	})
}
