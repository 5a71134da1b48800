package indicators

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"eth-trade-bot-go/internal/domain"
)

func constantCandles(n int, price, vol float64) []domain.Candle {
	candles := make([]domain.Candle, n)
	for i := range candles {
		candles[i] = domain.Candle{
			Open:   decimal.NewFromFloat(price),
			High:   decimal.NewFromFloat(price),
			Low:    decimal.NewFromFloat(price),
			Close:  decimal.NewFromFloat(price),
			Volume: decimal.NewFromFloat(vol),
		}
	}
	return candles
}

func closesFromFloats(values []float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func TestVWAP_ConstantPrice(t *testing.T) {
	candles := constantCandles(30, 2500, 3)

	vwap, err := VWAP(candles)
	require.NoError(t, err)

	got, _ := vwap.Float64()
	require.InDelta(t, 2500, got, 1e-6)
}

func TestVWAP_WeightedByVolume(t *testing.T) {
	candles := []domain.Candle{
		{High: decimal.NewFromInt(12), Low: decimal.NewFromInt(8), Close: decimal.NewFromInt(10), Volume: decimal.NewFromInt(1)},
		{High: decimal.NewFromInt(22), Low: decimal.NewFromInt(18), Close: decimal.NewFromInt(20), Volume: decimal.NewFromInt(3)},
	}

	vwap, err := VWAP(candles)
	require.NoError(t, err)

	// typical prices 10 and 20: (10*1 + 20*3) / (1+3) = 17.5
	got, _ := vwap.Float64()
	require.InDelta(t, 17.5, got, 1e-6)
}

func TestVWAP_UsesTypicalPrice(t *testing.T) {
	// wide range candle: typical price (30+6+12)/3 = 16, not the close
	candles := []domain.Candle{
		{High: decimal.NewFromInt(30), Low: decimal.NewFromInt(6), Close: decimal.NewFromInt(12), Volume: decimal.NewFromInt(5)},
	}

	vwap, err := VWAP(candles)
	require.NoError(t, err)

	got, _ := vwap.Float64()
	require.InDelta(t, 16, got, 1e-6)
}

func TestVWAP_Empty(t *testing.T) {
	_, err := VWAP(nil)
	require.Error(t, err)
}

func TestSMA(t *testing.T) {
	closes := closesFromFloats([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	sma, err := SMA(closes, SMAPeriod)
	require.NoError(t, err)

	// mean of the last 7 closes: (4+...+10)/7 = 7
	got, _ := sma.Float64()
	require.InDelta(t, 7, got, 1e-6)
}

func TestSMA_NotEnoughData(t *testing.T) {
	closes := closesFromFloats([]float64{1, 2, 3})

	_, err := SMA(closes, SMAPeriod)
	require.Error(t, err)
}

func TestRSI_Bounds(t *testing.T) {
	// alternating gains and losses keep RSI strictly inside (0, 100)
	values := make([]float64, 40)
	price := 100.0
	for i := range values {
		if i%2 == 0 {
			price += 2
		} else {
			price -= 1
		}
		values[i] = price
	}

	rsi, err := RSI(closesFromFloats(values))
	require.NoError(t, err)

	got, _ := rsi.Float64()
	require.Greater(t, got, 0.0)
	require.Less(t, got, 100.0)
}

func TestRSI_NotEnoughData(t *testing.T) {
	_, err := RSI(closesFromFloats([]float64{1, 2, 3}))
	require.Error(t, err)
}

func TestMACDLine_ConstantSeries(t *testing.T) {
	closes := make([]decimal.Decimal, 40)
	for i := range closes {
		closes[i] = decimal.NewFromInt(1000)
	}

	macd, err := MACDLine(closes)
	require.NoError(t, err)

	got, _ := macd.Float64()
	require.InDelta(t, 0, got, 1e-6)
}

func TestBollinger_ConstantSeries(t *testing.T) {
	closes := make([]decimal.Decimal, 30)
	for i := range closes {
		closes[i] = decimal.NewFromInt(2000)
	}

	high, low, err := Bollinger(closes)
	require.NoError(t, err)

	// zero deviation collapses both bands onto the price
	gotHigh, _ := high.Float64()
	gotLow, _ := low.Float64()
	require.InDelta(t, 2000, gotHigh, 1e-6)
	require.InDelta(t, 2000, gotLow, 1e-6)
}

func TestBollinger_LongWindow(t *testing.T) {
	// windows well past the 20-candle minimum must complete; a stalled band
	// channel would hang this test
	for _, n := range []int{60, 720} {
		closes := make([]decimal.Decimal, n)
		price := 2000.0
		for i := range closes {
			if i%2 == 0 {
				price += 15
			} else {
				price -= 10
			}
			closes[i] = decimal.NewFromFloat(price)
		}

		high, low, err := Bollinger(closes)
		require.NoError(t, err)

		gotHigh, _ := high.Float64()
		gotLow, _ := low.Float64()
		require.Greater(t, gotHigh, gotLow)
	}
}

func TestBollinger_NotEnoughData(t *testing.T) {
	_, _, err := Bollinger(closesFromFloats([]float64{1, 2, 3}))
	require.Error(t, err)
}
