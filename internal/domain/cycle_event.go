package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CycleEvent is the journaled form of an Outcome.
type CycleEvent struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"ts"`
	Asset       string          `json:"asset"`
	Status      OutcomeStatus   `json:"status"`
	Stage       Stage           `json:"stage"`
	Reason      string          `json:"reason"`
	Error       string          `json:"error,omitempty"`
	Volatility  *float64        `json:"volatility,omitempty"`
	BaseSize    decimal.Decimal `json:"base_size"`
	Multiplier  float64         `json:"multiplier"`
	FinalAmount decimal.Decimal `json:"final_amount"`
	Price       decimal.Decimal `json:"price,omitempty"`
	Record      *TradeRecord    `json:"record,omitempty"`
}

// NewCycleEvent converts an outcome into a journal entry.
func NewCycleEvent(id string, ts time.Time, o Outcome) CycleEvent {
	ev := CycleEvent{
		ID:          id,
		Timestamp:   ts.UTC(),
		Asset:       o.Asset,
		Status:      o.Status,
		Stage:       o.Stage,
		Reason:      o.Reason,
		BaseSize:    o.BaseSize,
		Multiplier:  o.Multiplier,
		FinalAmount: o.FinalAmount,
		Price:       o.Price,
		Record:      o.Record,
	}
	if o.Cause != nil {
		ev.Error = o.Cause.Error()
	}
	if o.Volatility.Available {
		v := o.Volatility.Value
		ev.Volatility = &v
	}
	return ev
}
