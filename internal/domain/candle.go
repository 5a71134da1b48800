package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is an OHLCV data point for a fixed time interval.
type Candle struct {
	OpenTime time.Time
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	// VWAP is the volume-weighted average price within this candle,
	// as reported by the exchange.
	VWAP   decimal.Decimal
	Volume decimal.Decimal
}

var three = decimal.NewFromInt(3)

// TypicalPrice returns (high + low + close) / 3, the per-candle price used
// when averaging across a window.
func (c Candle) TypicalPrice() decimal.Decimal {
	return c.High.Add(c.Low).Add(c.Close).Div(three)
}

// IndicatorSnapshot holds indicator values derived from the most recent
// candle window. Recomputed wholesale on each refresh.
type IndicatorSnapshot struct {
	// Close is the closing price of the most recent candle.
	Close decimal.Decimal
	// VWAP is computed over the full candle window.
	VWAP          decimal.Decimal
	RSI           decimal.Decimal
	MACD          decimal.Decimal
	BollingerHigh decimal.Decimal
	BollingerLow  decimal.Decimal
	// MovingAverage7 is the 7-period simple moving average of closing price.
	MovingAverage7 decimal.Decimal
	// At is the open time of the most recent candle in the window.
	At time.Time
}
