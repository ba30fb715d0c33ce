package services

import (
	"context"

	"github.com/shopspring/decimal"

	"finledger/internal/logger"
)

// EffectStep names one derived-state write performed after a ledger write.
type EffectStep string

const (
	StepTags         EffectStep = "tags"
	StepBalance      EffectStep = "balance"
	StepCreditLimit  EffectStep = "credit_limit"
	StepBudget       EffectStep = "budget"
	StepSummaryCache EffectStep = "summary_cache"
)

// EffectResult is the outcome of a single side effect. Err is nil on success.
type EffectResult struct {
	Step      EffectStep
	Target    string
	Direction string
	Amount    decimal.Decimal
	Err       error
}

// Failed reports whether the step did not complete.
func (r EffectResult) Failed() bool { return r.Err != nil }

// EffectReport collects every side effect of one ledger operation. The
// transaction write has already succeeded by the time a report exists, so a
// failed result means the derived state is stale until reconciliation runs.
type EffectReport struct {
	Operation     string
	TransactionID string
	UserID        string
	Results       []EffectResult
}

// Add appends results to the report.
func (r *EffectReport) Add(results ...EffectResult) {
	r.Results = append(r.Results, results...)
}

// Failed returns the results that carry an error.
func (r EffectReport) Failed() []EffectResult {
	var failed []EffectResult
	for _, res := range r.Results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// OK reports whether every side effect succeeded.
func (r EffectReport) OK() bool {
	return len(r.Failed()) == 0
}

// EffectObserver receives the report of every ledger operation.
// Implementations must not block the caller for long and must not panic.
type EffectObserver interface {
	Observe(ctx context.Context, report EffectReport)
}

// ObserverFunc adapts a function to EffectObserver.
type ObserverFunc func(ctx context.Context, report EffectReport)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, report EffectReport) { f(ctx, report) }

type loggingObserver struct{}

// NewLoggingObserver returns an observer that logs failed side effects at
// error level and successful reports at debug level.
func NewLoggingObserver() EffectObserver {
	return loggingObserver{}
}

func (loggingObserver) Observe(_ context.Context, report EffectReport) {
	log := logger.Named("ledger")
	failed := report.Failed()
	if len(failed) == 0 {
		log.Debugw("side effects applied",
			"operation", report.Operation,
			"transaction_id", report.TransactionID,
			"steps", len(report.Results),
		)
		return
	}
	for _, res := range failed {
		log.Errorw("side effect failed, derived state is stale until reconciled",
			"operation", report.Operation,
			"transaction_id", report.TransactionID,
			"user_id", report.UserID,
			"step", res.Step,
			"target", res.Target,
			"direction", res.Direction,
			"amount", res.Amount.String(),
			"error", res.Err,
		)
	}
}

type multiObserver []EffectObserver

// MultiObserver fans a report out to every non-nil observer in order.
func MultiObserver(observers ...EffectObserver) EffectObserver {
	var m multiObserver
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) Observe(ctx context.Context, report EffectReport) {
	for _, o := range m {
		o.Observe(ctx, report)
	}
}
