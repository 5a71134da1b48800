package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OutcomeStatus classifies the result of a decide-and-execute invocation.
type OutcomeStatus int

const (
	// OutcomeExecuted a swap transaction was accepted by the node.
	OutcomeExecuted OutcomeStatus = iota
	// OutcomeSkipped a normal no-trade result, e.g. price not favorable.
	OutcomeSkipped
	// OutcomeAbandoned the operation gave up after committing to act,
	// e.g. funds still insufficient after the retry wait.
	OutcomeAbandoned
)

// String returns the string representation of the outcome status.
func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeExecuted:
		return "executed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Outcome is the result of a buy or sell decision. Callers must handle the
// no-trade variants explicitly; they are not errors.
type Outcome struct {
	Status OutcomeStatus
	// TxID is set only for executed outcomes.
	TxID string
	// Reason is a human-readable explanation for skipped and abandoned outcomes.
	Reason string
}

// Executed builds an outcome for an accepted transaction.
func Executed(txID string) Outcome {
	return Outcome{Status: OutcomeExecuted, TxID: txID}
}

// Skipped builds a normal no-trade outcome.
func Skipped(reason string) Outcome {
	return Outcome{Status: OutcomeSkipped, Reason: reason}
}

// Abandoned builds an outcome for an operation that gave up.
func Abandoned(reason string) Outcome {
	return Outcome{Status: OutcomeAbandoned, Reason: reason}
}

// String returns a human-readable string representation.
func (o Outcome) String() string {
	if o.Status == OutcomeExecuted {
		return fmt.Sprintf("executed tx %s", o.TxID)
	}
	return fmt.Sprintf("%s: %s", o.Status.String(), o.Reason)
}

// Status is a point-in-time view of wallet and position state.
type Status struct {
	Balance       decimal.Decimal
	Price         decimal.Decimal
	UnrealizedPnL decimal.Decimal
}
