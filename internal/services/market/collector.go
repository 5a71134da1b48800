// Package market fetches candle windows and derives indicator snapshots
// from them.
package market

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"eth-trade-bot-go/internal/domain"
	"eth-trade-bot-go/internal/services/market/indicators"
	"eth-trade-bot-go/pkg/retrier"
)

const fetchTimeout = 30 * time.Second

// CandleProvider fetches an ordered candle sequence for the tracked symbol.
type CandleProvider interface {
	// GetCandles fetches up to limit candles of the given interval,
	// in ascending time order.
	GetCandles(ctx context.Context, interval time.Duration, limit int) ([]domain.Candle, error)
}

// Collector fetches candles and recomputes the full indicator snapshot on
// every refresh. A stale or partial snapshot is never returned: any fetch or
// validation failure surfaces as ErrDataUnavailable.
type Collector struct {
	provider CandleProvider
	interval time.Duration
	limit    int
	retrier  *retrier.Retrier
	logger   *zap.Logger
}

// NewCollector creates a collector bound to a candle interval and window size.
// A nil retrier gets a default of two retries with short backoff.
func NewCollector(provider CandleProvider, interval time.Duration, limit int, r *retrier.Retrier, logger *zap.Logger) *Collector {
	if r == nil {
		r = retrier.New(
			retrier.WithMaxRetries(2),
			retrier.WithInitialInterval(2*time.Second),
		)
	}

	return &Collector{
		provider: provider,
		interval: interval,
		limit:    limit,
		retrier:  r,
		logger:   logger,
	}
}

// Refresh fetches the candle window and derives a fresh indicator snapshot.
func (c *Collector) Refresh(ctx context.Context) (domain.IndicatorSnapshot, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	candles, err := retrier.DoWithData(c.retrier, ctxWithTimeout, func(ctx context.Context) ([]domain.Candle, error) {
		return c.provider.GetCandles(ctx, c.interval, c.limit)
	})
	if err != nil {
		return domain.IndicatorSnapshot{}, errors.Wrapf(domain.ErrDataUnavailable, "candle fetch failed: %s", err)
	}

	if err := validateCandles(candles); err != nil {
		return domain.IndicatorSnapshot{}, errors.Wrapf(domain.ErrDataUnavailable, "%s", err)
	}

	snapshot, err := deriveSnapshot(candles)
	if err != nil {
		return domain.IndicatorSnapshot{}, errors.Wrapf(domain.ErrDataUnavailable, "%s", err)
	}

	c.logger.Debug("refreshed indicator snapshot",
		zap.Int("candles", len(candles)),
		zap.String("close", snapshot.Close.String()),
		zap.String("vwap", snapshot.VWAP.String()))

	return snapshot, nil
}

func validateCandles(candles []domain.Candle) error {
	if len(candles) == 0 {
		return errors.New("empty candle sequence")
	}
	if len(candles) < indicators.MinCandles {
		return errors.Errorf("insufficient candle history: need at least %d, got %d",
			indicators.MinCandles, len(candles))
	}

	for i := 1; i < len(candles); i++ {
		if !candles[i].OpenTime.After(candles[i-1].OpenTime) {
			return errors.Errorf("candle sequence not strictly ascending at index %d", i)
		}
	}

	return nil
}

func deriveSnapshot(candles []domain.Candle) (domain.IndicatorSnapshot, error) {
	closes := make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	vwap, err := indicators.VWAP(candles)
	if err != nil {
		return domain.IndicatorSnapshot{}, errors.Wrap(err, "failed to calculate VWAP")
	}

	rsi, err := indicators.RSI(closes)
	if err != nil {
		return domain.IndicatorSnapshot{}, errors.Wrap(err, "failed to calculate RSI")
	}

	macd, err := indicators.MACDLine(closes)
	if err != nil {
		return domain.IndicatorSnapshot{}, errors.Wrap(err, "failed to calculate MACD")
	}

	bollingerHigh, bollingerLow, err := indicators.Bollinger(closes)
	if err != nil {
		return domain.IndicatorSnapshot{}, errors.Wrap(err, "failed to calculate Bollinger Bands")
	}

	sma, err := indicators.SMA(closes, indicators.SMAPeriod)
	if err != nil {
		return domain.IndicatorSnapshot{}, errors.Wrap(err, "failed to calculate moving average")
	}

	last := candles[len(candles)-1]

	return domain.IndicatorSnapshot{
		Close:          last.Close,
		VWAP:           vwap,
		RSI:            rsi,
		MACD:           macd,
		BollingerHigh:  bollingerHigh,
		BollingerLow:   bollingerLow,
		MovingAverage7: sma,
		At:             last.OpenTime,
	}, nil
}
