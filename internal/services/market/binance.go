package market

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"eth-trade-bot-go/internal/domain"
)

// BinanceCandleProvider implements CandleProvider for Binance.
type BinanceCandleProvider struct {
	client *binance.Client
	pair   domain.Pair
}

// NewBinanceCandleProvider creates a provider for the given pair.
func NewBinanceCandleProvider(client *binance.Client, pair domain.Pair) *BinanceCandleProvider {
	return &BinanceCandleProvider{client: client, pair: pair}
}

// GetCandles fetches kline data from Binance.
func (p *BinanceCandleProvider) GetCandles(ctx context.Context, interval time.Duration, limit int) ([]domain.Candle, error) {
	binanceInterval, err := intervalString(interval)
	if err != nil {
		return nil, err
	}

	klines, err := p.client.NewKlinesService().
		Symbol(p.pair.Symbol()).
		Interval(binanceInterval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", p.pair.String())
	}

	result := make([]domain.Candle, len(klines))
	for i, k := range klines {
		candle, err := klineToCandle(k)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed binance kline at index %d", i)
		}
		result[i] = candle
	}

	return result, nil
}

func klineToCandle(k *binance.Kline) (domain.Candle, error) {
	open, err := decimal.NewFromString(k.Open)
	if err != nil {
		return domain.Candle{}, errors.Wrap(err, "failed to parse open price")
	}
	high, err := decimal.NewFromString(k.High)
	if err != nil {
		return domain.Candle{}, errors.Wrap(err, "failed to parse high price")
	}
	low, err := decimal.NewFromString(k.Low)
	if err != nil {
		return domain.Candle{}, errors.Wrap(err, "failed to parse low price")
	}
	close, err := decimal.NewFromString(k.Close)
	if err != nil {
		return domain.Candle{}, errors.Wrap(err, "failed to parse close price")
	}
	volume, err := decimal.NewFromString(k.Volume)
	if err != nil {
		return domain.Candle{}, errors.Wrap(err, "failed to parse volume")
	}

	candle := domain.Candle{
		OpenTime: time.Unix(0, k.OpenTime*int64(time.Millisecond)),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close,
		Volume:   volume,
	}
	// Binance klines carry no per-candle VWAP; the typical price is the
	// closest equivalent.
	candle.VWAP = candle.TypicalPrice()

	return candle, nil
}

func intervalString(interval time.Duration) (string, error) {
	switch interval {
	case time.Minute:
		return "1m", nil
	case 5 * time.Minute:
		return "5m", nil
	case 15 * time.Minute:
		return "15m", nil
	case time.Hour:
		return "1h", nil
	case 4 * time.Hour:
		return "4h", nil
	case 24 * time.Hour:
		return "1d", nil
	default:
		return "", fmt.Errorf("unsupported binance kline interval %s", interval)
	}
}
