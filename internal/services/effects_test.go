package services

import (
	"context"
	"errors"
	"testing"

	"finledger/internal/testutil"
)

func TestEffectReport(t *testing.T) {
	var report EffectReport
	if !report.OK() {
		t.Error("an empty report is OK")
	}

	report.Add(
		EffectResult{Step: StepBalance, Target: "a", Amount: testutil.Dec("1")},
		EffectResult{Step: StepBudget, Target: "2024-03/expense", Err: errors.New("boom")},
	)
	if report.OK() {
		t.Error("expected report with a failure to be not OK")
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Step != StepBudget {
		t.Errorf("unexpected failures %+v", failed)
	}
}

func TestMultiObserver(t *testing.T) {
	var calls []string
	first := ObserverFunc(func(_ context.Context, r EffectReport) { calls = append(calls, "first:"+r.Operation) })
	second := ObserverFunc(func(_ context.Context, r EffectReport) { calls = append(calls, "second:"+r.Operation) })

	obs := MultiObserver(first, nil, second, NewLoggingObserver())
	obs.Observe(context.Background(), EffectReport{
		Operation: "delete",
		Results:   []EffectResult{{Step: StepBalance, Err: errors.New("gone")}},
	})

	if len(calls) != 2 || calls[0] != "first:delete" || calls[1] != "second:delete" {
		t.Errorf("unexpected calls %v", calls)
	}
}
