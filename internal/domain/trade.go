package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the direction of an executed trade.
type Side int

const (
	// SideBuy base currency bought.
	SideBuy Side = iota
	// SideSell base currency sold.
	SideSell
)

// String returns the string representation of the trade side.
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// Trade is a single executed trade. Appended to the ledger only after the
// transaction was accepted by the execution interface; never mutated.
type Trade struct {
	ID        string          `json:"id"`
	Side      Side            `json:"side"`
	Amount    decimal.Decimal `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	TxID      string          `json:"tx_id"`
	Timestamp time.Time       `json:"timestamp"`
}

// String returns a human-readable string representation.
func (t *Trade) String() string {
	return fmt.Sprintf("%s %s @ %s", t.Side.String(), t.Amount.String(), t.Price.String())
}
