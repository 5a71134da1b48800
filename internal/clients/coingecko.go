package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"

	// The free CoinGecko tier allows around 30 requests per minute.
	coingeckoRateLimit = 0.5
	coingeckoBurst     = 1

	coingeckoRequestTimeout = 15 * time.Second
)

// CoinGeckoClient is a client for the CoinGecko simple price API.
// CoinGecko identifies assets by canonical ids ("ethereum"), not by
// exchange pair symbols.
type CoinGeckoClient struct {
	client  *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewCoinGeckoClient creates a new CoinGecko API client.
// apiKey may be empty for the free tier.
func NewCoinGeckoClient(apiKey string, logger *zap.Logger) *CoinGeckoClient {
	client := resty.New().
		SetBaseURL(coingeckoBaseURL).
		SetTimeout(coingeckoRequestTimeout)

	if apiKey != "" {
		client.SetHeader("x-cg-pro-api-key", apiKey)
	}

	return &CoinGeckoClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(coingeckoRateLimit), coingeckoBurst),
		logger:  logger,
	}
}

// SimplePrice fetches the current price of the asset in the given vs-currency.
func (c *CoinGeckoClient) SimplePrice(ctx context.Context, assetID, vsCurrency string) (decimal.Decimal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Decimal{}, err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":           assetID,
			"vs_currencies": vsCurrency,
		}).
		Get("/simple/price")
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "coingecko simple price request failed")
	}
	if resp.IsError() {
		return decimal.Decimal{}, fmt.Errorf("coingecko simple price returned status %d", resp.StatusCode())
	}

	var payload map[string]map[string]json.Number
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "failed to decode coingecko response")
	}

	prices, ok := payload[assetID]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("coingecko response does not contain asset %s", assetID)
	}
	raw, ok := prices[vsCurrency]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("coingecko response does not contain currency %s for asset %s", vsCurrency, assetID)
	}

	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "failed to parse coingecko price")
	}

	c.logger.Debug("fetched coingecko price",
		zap.String("asset", assetID),
		zap.String("vs_currency", vsCurrency),
		zap.String("price", price.String()))

	return price, nil
}
