package market

import (
	"context"
	"time"

	"eth-trade-bot-go/internal/clients"
	"eth-trade-bot-go/internal/domain"
)

// KrakenCandleProvider implements CandleProvider for Kraken.
type KrakenCandleProvider struct {
	client *clients.KrakenClient
	pair   string
}

// NewKrakenCandleProvider creates a provider for the given Kraken pair identifier.
func NewKrakenCandleProvider(client *clients.KrakenClient, pair string) *KrakenCandleProvider {
	return &KrakenCandleProvider{client: client, pair: pair}
}

// GetCandles fetches OHLC rows from Kraken. Kraken keys intervals by minutes
// and returns at most the most recent 720 rows, so limit only trims the tail.
func (p *KrakenCandleProvider) GetCandles(ctx context.Context, interval time.Duration, limit int) ([]domain.Candle, error) {
	candles, err := p.client.OHLC(ctx, p.pair, int(interval.Minutes()))
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	return candles, nil
}
