// Package events publishes ledger side-effect failures to RabbitMQ so that
// downstream consumers can schedule targeted reconciliation.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"finledger/internal/services"
)

// DriftFailure describes one side effect that did not complete.
type DriftFailure struct {
	Step      string `json:"step"`
	Target    string `json:"target"`
	Direction string `json:"direction,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Error     string `json:"error"`
}

// DriftEvent is emitted when a ledger operation left derived state stale.
type DriftEvent struct {
	Operation     string         `json:"operation"`
	TransactionID string         `json:"transaction_id"`
	UserID        string         `json:"user_id"`
	Failures      []DriftFailure `json:"failures"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

// NewDriftEvent builds an event from the failed results of report. It returns
// nil when every side effect succeeded.
func NewDriftEvent(report services.EffectReport, now time.Time) *DriftEvent {
	failed := report.Failed()
	if len(failed) == 0 {
		return nil
	}

	event := &DriftEvent{
		Operation:     report.Operation,
		TransactionID: report.TransactionID,
		UserID:        report.UserID,
		Failures:      make([]DriftFailure, 0, len(failed)),
		OccurredAt:    now.UTC(),
	}
	for _, res := range failed {
		f := DriftFailure{
			Step:      string(res.Step),
			Target:    res.Target,
			Direction: res.Direction,
			Error:     res.Err.Error(),
		}
		if !res.Amount.IsZero() {
			f.Amount = res.Amount.String()
		}
		event.Failures = append(event.Failures, f)
	}
	return event
}

// ToJSON encodes the event.
func (e *DriftEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// DriftEventFromJSON decodes an event.
func DriftEventFromJSON(data []byte) (*DriftEvent, error) {
	var e DriftEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal drift event: %w", err)
	}
	return &e, nil
}
