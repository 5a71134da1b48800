package pricer

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"eth-trade-bot-go/internal/domain"
)

// BinancePricer fetches spot prices from Binance. It is an alternative
// primary source selectable via the platform config.
type BinancePricer struct {
	client *binance.Client
	pair   domain.Pair
}

// NewBinancePricer creates a pricer for the given pair.
func NewBinancePricer(client *binance.Client, pair domain.Pair) *BinancePricer {
	return &BinancePricer{client: client, pair: pair}
}

// GetPrice fetches the last trade price from Binance.
func (p *BinancePricer) GetPrice(ctx context.Context) (domain.PricePoint, error) {
	prices, err := p.client.NewListPricesService().Symbol(p.pair.Symbol()).Do(ctx)
	if err != nil {
		return domain.PricePoint{}, errors.Wrapf(err, "failed to fetch binance price for %s", p.pair.String())
	}
	if len(prices) == 0 {
		return domain.PricePoint{}, fmt.Errorf("binance API returned empty prices for %s", p.pair.String())
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return domain.PricePoint{}, errors.Wrap(err, "failed to parse binance price")
	}

	return domain.PricePoint{
		Price:     price,
		Source:    domain.PriceSourcePrimary,
		Timestamp: time.Now(),
	}, nil
}
