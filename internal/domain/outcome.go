package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OutcomeStatus is the terminal state of a purchase cycle.
type OutcomeStatus string

const (
	OutcomeRecorded OutcomeStatus = "recorded"
	OutcomeSkipped  OutcomeStatus = "skipped"
	OutcomeFailed   OutcomeStatus = "failed"
)

// Stage is the last step a cycle reached.
type Stage string

const (
	StageGated      Stage = "gated"
	StageSizing     Stage = "sizing"
	StageBalancing  Stage = "balancing"
	StagePricing    Stage = "pricing"
	StageSubmitting Stage = "submitting"
	StageRecording  Stage = "recording"
)

// Outcome is the tagged result of one purchase cycle.
type Outcome struct {
	Asset  string
	Status OutcomeStatus
	Stage  Stage
	Reason string
	// Cause is set for failures and supports errors.Is against sentinel errors.
	Cause error
	// Record is set when an order was filled, including when persisting it failed.
	Record *TradeRecord

	Volatility  Volatility
	BaseSize    decimal.Decimal
	Multiplier  float64
	FinalAmount decimal.Decimal
	Price       decimal.Decimal
}

// Skip ends the cycle without trading.
func (o Outcome) Skip(stage Stage, reason string) Outcome {
	o.Status = OutcomeSkipped
	o.Stage = stage
	o.Reason = reason
	return o
}

// Fail ends the cycle with an error.
func (o Outcome) Fail(stage Stage, reason string, cause error) Outcome {
	o.Status = OutcomeFailed
	o.Stage = stage
	o.Reason = reason
	o.Cause = cause
	return o
}

// Succeed ends the cycle with a persisted record.
func (o Outcome) Succeed(rec TradeRecord) Outcome {
	o.Status = OutcomeRecorded
	o.Stage = StageRecording
	o.Reason = "recorded"
	o.Record = &rec
	return o
}

// Failed reports whether the cycle failed.
func (o Outcome) Failed() bool {
	return o.Status == OutcomeFailed
}

// String returns a human-readable string representation.
func (o Outcome) String() string {
	switch o.Status {
	case OutcomeRecorded:
		if o.Record != nil {
			return fmt.Sprintf("%s: %s", o.Asset, o.Record.String())
		}
		return fmt.Sprintf("%s: recorded", o.Asset)
	case OutcomeFailed:
		if o.Cause != nil {
			return fmt.Sprintf("%s: failed at %s: %s: %v", o.Asset, o.Stage, o.Reason, o.Cause)
		}
		return fmt.Sprintf("%s: failed at %s: %s", o.Asset, o.Stage, o.Reason)
	default:
		return fmt.Sprintf("%s: skipped at %s: %s", o.Asset, o.Stage, o.Reason)
	}
}
