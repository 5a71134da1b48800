// Package clients contains thin HTTP clients for external market data APIs.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"eth-trade-bot-go/internal/domain"
)

const (
	krakenBaseURL = "https://api.kraken.com/0/public"

	// Kraken public endpoints allow roughly 1 request per second.
	krakenRateLimit = 1
	krakenBurst     = 2

	krakenRequestTimeout = 15 * time.Second
)

// KrakenClient is a client for the Kraken public REST API.
type KrakenClient struct {
	client  *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewKrakenClient creates a new Kraken public API client.
func NewKrakenClient(logger *zap.Logger) *KrakenClient {
	client := resty.New().
		SetBaseURL(krakenBaseURL).
		SetTimeout(krakenRequestTimeout)

	return &KrakenClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(krakenRateLimit), krakenBurst),
		logger:  logger,
	}
}

type krakenResponse struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

func (c *KrakenClient) get(ctx context.Context, path string, params map[string]string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, errors.Wrapf(err, "kraken request %s failed", path)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("kraken request %s returned status %d", path, resp.StatusCode())
	}

	var kr krakenResponse
	if err := json.Unmarshal(resp.Body(), &kr); err != nil {
		return nil, errors.Wrapf(err, "failed to decode kraken response for %s", path)
	}
	if len(kr.Error) > 0 {
		return nil, fmt.Errorf("kraken API error: %v", kr.Error)
	}

	return kr.Result, nil
}

// Ticker fetches the last trade price for the given Kraken pair identifier.
func (c *KrakenClient) Ticker(ctx context.Context, pair string) (decimal.Decimal, error) {
	result, err := c.get(ctx, "/Ticker", map[string]string{"pair": pair})
	if err != nil {
		return decimal.Decimal{}, err
	}

	var tickers map[string]struct {
		C []string `json:"c"`
	}
	if err := json.Unmarshal(result, &tickers); err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "failed to decode kraken ticker result")
	}

	ticker, ok := tickers[pair]
	if !ok || len(ticker.C) == 0 {
		return decimal.Decimal{}, fmt.Errorf("kraken ticker result does not contain pair %s", pair)
	}

	price, err := decimal.NewFromString(ticker.C[0])
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "failed to parse kraken last price")
	}

	c.logger.Debug("fetched kraken ticker", zap.String("pair", pair), zap.String("price", price.String()))

	return price, nil
}

// OHLC fetches candles for the given Kraken pair identifier and interval.
// Rows are returned by Kraken in ascending time order.
func (c *KrakenClient) OHLC(ctx context.Context, pair string, intervalMinutes int) ([]domain.Candle, error) {
	result, err := c.get(ctx, "/OHLC", map[string]string{
		"pair":     pair,
		"interval": strconv.Itoa(intervalMinutes),
	})
	if err != nil {
		return nil, err
	}

	// The result maps the pair to rows of
	// [time, open, high, low, close, vwap, volume, count]
	// plus a "last" cursor field that is skipped here.
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode kraken OHLC result")
	}

	raw, ok := payload[pair]
	if !ok {
		return nil, fmt.Errorf("kraken OHLC result does not contain pair %s", pair)
	}

	var rows [][]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, errors.Wrap(err, "failed to decode kraken OHLC rows")
	}

	candles := make([]domain.Candle, 0, len(rows))
	for i, row := range rows {
		candle, err := rowToCandle(row)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed kraken OHLC row at index %d", i)
		}
		candles = append(candles, candle)
	}

	c.logger.Debug("fetched kraken candles",
		zap.String("pair", pair),
		zap.Int("interval_minutes", intervalMinutes),
		zap.Int("count", len(candles)))

	return candles, nil
}

func rowToCandle(row []any) (domain.Candle, error) {
	if len(row) < 7 {
		return domain.Candle{}, fmt.Errorf("expected at least 7 cells, got %d", len(row))
	}

	ts, err := cellToDecimal(row[0])
	if err != nil {
		return domain.Candle{}, errors.Wrap(err, "time")
	}

	cells := make([]decimal.Decimal, 6)
	for i, name := range []string{"open", "high", "low", "close", "vwap", "volume"} {
		v, err := cellToDecimal(row[i+1])
		if err != nil {
			return domain.Candle{}, errors.Wrap(err, name)
		}
		cells[i] = v
	}

	return domain.Candle{
		OpenTime: time.Unix(ts.IntPart(), 0),
		Open:     cells[0],
		High:     cells[1],
		Low:      cells[2],
		Close:    cells[3],
		VWAP:     cells[4],
		Volume:   cells[5],
	}, nil
}

// cellToDecimal converts a single OHLC cell. Kraken mixes numeric timestamps
// with string-encoded prices in the same row.
func cellToDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case string:
		return decimal.NewFromString(t)
	case float64:
		return decimal.NewFromFloat(t), nil
	case json.Number:
		return decimal.NewFromString(t.String())
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported cell type %T", v)
	}
}
