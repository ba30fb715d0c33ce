package services

import (
	"time"

	"github.com/shopspring/decimal"

	"finledger/internal/models"
)

// effect is the part of a transaction that determines its monetary effect:
// which accounts and which budget period move, and by how much.
type effect struct {
	UserID           string
	AccountID        string
	Kind             models.TransactionKind
	Amount           decimal.Decimal
	Date             time.Time
	IsInvoicePayment bool
	SourceCardID     string
}

func effectOf(t *models.Transaction) effect {
	e := effect{
		UserID:           t.UserID,
		AccountID:        t.AccountID,
		Kind:             t.Kind,
		Amount:           t.Amount,
		Date:             t.Date.UTC(),
		IsInvoicePayment: t.IsInvoicePayment,
	}
	if t.SourceCardID != nil {
		e.SourceCardID = *t.SourceCardID
	}
	return e
}

// sameAs reports whether applying e and o would touch the same targets with
// the same amount.
func (e effect) sameAs(o effect) bool {
	return e.AccountID == o.AccountID &&
		e.Kind == o.Kind &&
		e.Amount.Equal(o.Amount) &&
		e.Date.Equal(o.Date) &&
		e.IsInvoicePayment == o.IsInvoicePayment &&
		e.SourceCardID == o.SourceCardID
}

// effectPlan says what the ledger must undo and redo after a write. Reverse
// always runs before apply, and they are never merged into a single delta
// because the old and new effects may target different accounts or periods.
type effectPlan struct {
	reverse *effect
	apply   *effect
}

func (p effectPlan) empty() bool {
	return p.reverse == nil && p.apply == nil
}

// planCreate applies only a confirmed new row.
func planCreate(t *models.Transaction) effectPlan {
	if !t.IsConfirmed() {
		return effectPlan{}
	}
	e := effectOf(t)
	return effectPlan{apply: &e}
}

// planUpdate compares the row before and after an update.
//
//	old confirmed, new not confirmed  reverse old
//	old not confirmed, new confirmed  apply new
//	both confirmed, effect changed    reverse old, apply new
//	otherwise                         nothing
func planUpdate(before, after *models.Transaction) effectPlan {
	wasOn, isOn := before.IsConfirmed(), after.IsConfirmed()
	oldEffect, newEffect := effectOf(before), effectOf(after)

	switch {
	case wasOn && !isOn:
		return effectPlan{reverse: &oldEffect}
	case !wasOn && isOn:
		return effectPlan{apply: &newEffect}
	case wasOn && isOn && !oldEffect.sameAs(newEffect):
		return effectPlan{reverse: &oldEffect, apply: &newEffect}
	default:
		return effectPlan{}
	}
}

// planDelete reverses a confirmed row using its pre-delete values.
func planDelete(before *models.Transaction) effectPlan {
	if !before.IsConfirmed() {
		return effectPlan{}
	}
	e := effectOf(before)
	return effectPlan{reverse: &e}
}
