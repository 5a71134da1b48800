package pricer

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"eth-trade-bot-go/internal/clients"
	"eth-trade-bot-go/internal/domain"
)

const coingeckoVsCurrency = "usd"

// CoinGeckoPricer fetches spot prices from CoinGecko. Used as the fallback
// source when the primary fails.
type CoinGeckoPricer struct {
	client *clients.CoinGeckoClient
	// assetID is the canonical CoinGecko asset id (e.g. "ethereum"),
	// not an exchange pair symbol.
	assetID string
}

// NewCoinGeckoPricer creates a pricer for the given canonical asset id.
func NewCoinGeckoPricer(client *clients.CoinGeckoClient, assetID string) *CoinGeckoPricer {
	return &CoinGeckoPricer{client: client, assetID: assetID}
}

// GetPrice fetches the current USD price from CoinGecko.
func (p *CoinGeckoPricer) GetPrice(ctx context.Context) (domain.PricePoint, error) {
	price, err := p.client.SimplePrice(ctx, p.assetID, coingeckoVsCurrency)
	if err != nil {
		return domain.PricePoint{}, errors.Wrapf(err, "failed to fetch coingecko price for %s", p.assetID)
	}

	return domain.PricePoint{
		Price:     price,
		Source:    domain.PriceSourceSecondary,
		Timestamp: time.Now(),
	}, nil
}
