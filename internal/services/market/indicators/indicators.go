// Package indicators derives technical analysis values from candle windows.
// It uses the cinar/indicator library for RSI, MACD, Bollinger Bands, SMA
// and VWAP calculations.
package indicators

import (
	"fmt"
	"sync"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"
	"github.com/cinar/indicator/v2/volume"
	"github.com/shopspring/decimal"

	"eth-trade-bot-go/internal/domain"
)

const (
	rsiPeriod = 14
	// macdSlowPeriod is the slow EMA period of the standard MACD(12,26,9).
	macdSlowPeriod = 26
	bollingerPeriod = 20
	// SMAPeriod is the moving average window used for the weekly trend value.
	SMAPeriod = 7
)

// MinCandles is the smallest candle window for which every indicator in the
// snapshot can be computed. MACD has the longest warmup.
const MinCandles = macdSlowPeriod

// VWAP calculates the volume-weighted average price over the full candle
// window, weighting each candle's typical price (high+low+close)/3 by its
// volume.
func VWAP(candles []domain.Candle) (decimal.Decimal, error) {
	if len(candles) == 0 {
		return decimal.Decimal{}, fmt.Errorf("not enough data points for VWAP: got 0")
	}

	prices := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		prices[i], _ = c.TypicalPrice().Float64()
		volumes[i], _ = c.Volume.Float64()
	}

	vwap := volume.NewVwapWithPeriod[float64](len(candles))
	out := helper.ChanToSlice(vwap.Compute(
		helper.SliceToChan(prices),
		helper.SliceToChan(volumes),
	))
	if len(out) == 0 {
		return decimal.Decimal{}, fmt.Errorf("VWAP produced no values for window of %d candles", len(candles))
	}

	return decimal.NewFromFloat(out[len(out)-1]), nil
}

// RSI calculates the 14-period Relative Strength Index over closing prices
// and returns the most recent value.
func RSI(closes []decimal.Decimal) (decimal.Decimal, error) {
	if len(closes) < rsiPeriod+1 {
		return decimal.Decimal{}, fmt.Errorf("not enough data points for RSI: need %d, got %d", rsiPeriod+1, len(closes))
	}

	rsi := momentum.NewRsiWithPeriod[float64](rsiPeriod)
	out := helper.ChanToSlice(rsi.Compute(helper.SliceToChan(decimalsToFloat64(closes))))
	if len(out) == 0 {
		return decimal.Decimal{}, fmt.Errorf("RSI produced no values for %d closes", len(closes))
	}

	return decimal.NewFromFloat(out[len(out)-1]), nil
}

// MACDLine calculates the standard MACD line over closing prices and returns
// the most recent value.
func MACDLine(closes []decimal.Decimal) (decimal.Decimal, error) {
	if len(closes) < macdSlowPeriod {
		return decimal.Decimal{}, fmt.Errorf("not enough data points for MACD: need at least %d, got %d", macdSlowPeriod, len(closes))
	}

	macd := trend.NewMacd[float64]()
	macdChan, signalChan := macd.Compute(helper.SliceToChan(decimalsToFloat64(closes)))

	// Must drain the signal channel to prevent the computation from blocking.
	go func() {
		for range signalChan {
		}
	}()

	out := helper.ChanToSlice(macdChan)
	if len(out) == 0 {
		return decimal.Decimal{}, fmt.Errorf("MACD produced no values for %d closes", len(closes))
	}

	return decimal.NewFromFloat(out[len(out)-1]), nil
}

// Bollinger calculates the 20-period 2-standard-deviation Bollinger Bands
// over closing prices and returns the most recent upper and lower band.
func Bollinger(closes []decimal.Decimal) (high, low decimal.Decimal, err error) {
	if len(closes) < bollingerPeriod {
		return decimal.Decimal{}, decimal.Decimal{},
			fmt.Errorf("not enough data points for Bollinger Bands: need %d, got %d", bollingerPeriod, len(closes))
	}

	bb := volatility.NewBollingerBands[float64]()
	upperChan, middleChan, lowerChan := bb.Compute(helper.SliceToChan(decimalsToFloat64(closes)))

	// All three band channels are fed from a single duplicated stream, so
	// each must be consumed concurrently or the producer stalls.
	go func() {
		for range middleChan {
		}
	}()

	var lower []float64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		lower = helper.ChanToSlice(lowerChan)
	}()

	upper := helper.ChanToSlice(upperChan)
	wg.Wait()

	if len(upper) == 0 || len(lower) == 0 {
		return decimal.Decimal{}, decimal.Decimal{},
			fmt.Errorf("Bollinger Bands produced no values for %d closes", len(closes))
	}

	return decimal.NewFromFloat(upper[len(upper)-1]), decimal.NewFromFloat(lower[len(lower)-1]), nil
}

// SMA calculates the simple moving average of closing prices for the given
// period and returns the most recent value.
func SMA(closes []decimal.Decimal, period int) (decimal.Decimal, error) {
	if len(closes) < period {
		return decimal.Decimal{}, fmt.Errorf("not enough data points for SMA%d: need %d, got %d", period, period, len(closes))
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	out := helper.ChanToSlice(sma.Compute(helper.SliceToChan(decimalsToFloat64(closes))))
	if len(out) == 0 {
		return decimal.Decimal{}, fmt.Errorf("SMA%d produced no values for %d closes", period, len(closes))
	}

	return decimal.NewFromFloat(out[len(out)-1]), nil
}

func decimalsToFloat64(values []decimal.Decimal) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i], _ = v.Float64()
	}
	return out
}
