package pricer

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"eth-trade-bot-go/internal/clients"
	"eth-trade-bot-go/internal/domain"
)

// KrakenPricer fetches spot prices from the Kraken ticker endpoint.
type KrakenPricer struct {
	client *clients.KrakenClient
	// pair is the Kraken pair identifier (e.g. XETHZUSD), which differs
	// from the symbol format used by other providers.
	pair string
}

// NewKrakenPricer creates a pricer for the given Kraken pair identifier.
func NewKrakenPricer(client *clients.KrakenClient, pair string) *KrakenPricer {
	return &KrakenPricer{client: client, pair: pair}
}

// GetPrice fetches the last trade price from Kraken.
func (p *KrakenPricer) GetPrice(ctx context.Context) (domain.PricePoint, error) {
	price, err := p.client.Ticker(ctx, p.pair)
	if err != nil {
		return domain.PricePoint{}, errors.Wrapf(err, "failed to fetch kraken price for %s", p.pair)
	}

	return domain.PricePoint{
		Price:     price,
		Source:    domain.PriceSourcePrimary,
		Timestamp: time.Now(),
	}, nil
}
