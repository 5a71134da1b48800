package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource identifies which market data source produced a price.
type PriceSource int

const (
	// PriceSourcePrimary is the primary market data source.
	PriceSourcePrimary PriceSource = iota
	// PriceSourceSecondary is the fallback market data source.
	PriceSourceSecondary
)

// String returns the string representation of the price source.
func (s PriceSource) String() string {
	switch s {
	case PriceSourcePrimary:
		return "primary"
	case PriceSourceSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// PricePoint is a single spot price observation. Immutable once produced.
type PricePoint struct {
	Price     decimal.Decimal
	Source    PriceSource
	Timestamp time.Time
}
