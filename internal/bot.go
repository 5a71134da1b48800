// Package internal wires the trading services into a single scheduler loop.
package internal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"go.uber.org/zap"

	"eth-trade-bot-go/config"
	"eth-trade-bot-go/internal/domain"
	"eth-trade-bot-go/internal/services/engine"
	"eth-trade-bot-go/internal/services/notifier"
)

const tickInterval = 1 * time.Second

// TradingBot drives the market data pipeline, stop-loss monitor and decision
// engine from one control loop.
type TradingBot struct {
	engine   *engine.Engine
	notifier notifier.Notifier
	cfg      config.Config
	logger   *zap.Logger

	// priceLimiter gates stop-loss price checks to the poll interval so the
	// 1s loop tick does not hammer the price sources.
	priceLimiter *rate.Limiter
	lastCycle    time.Time
	lastReport   time.Time
}

// NewTradingBot creates the scheduler for the given engine.
func NewTradingBot(eng *engine.Engine, ntf notifier.Notifier, cfg config.Config, logger *zap.Logger) *TradingBot {
	return &TradingBot{
		engine:       eng,
		notifier:     ntf,
		cfg:          cfg,
		logger:       logger,
		priceLimiter: rate.NewLimiter(rate.Every(cfg.PollPriceInterval), 1),
	}
}

// Run executes the scheduler loop until the context is cancelled. On
// shutdown a final notification is flushed before returning.
func (b *TradingBot) Run(ctx context.Context) error {
	b.notifier.Notify(ctx, fmt.Sprintf("%s bot is online", b.cfg.Pair.String()))
	b.logger.Info("starting trading loop",
		zap.String("pair", b.cfg.Pair.String()),
		zap.Duration("candle_interval", b.cfg.CandleInterval),
		zap.Duration("poll_price_interval", b.cfg.PollPriceInterval))

	b.lastReport = time.Now()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("context done, stopping trading loop", zap.String("pair", b.cfg.Pair.String()))
			b.flushOfflineNotice()
			return ctx.Err()
		case <-ticker.C:
			b.tick(ctx)
		}
	}
}

func (b *TradingBot) tick(ctx context.Context) {
	if b.priceLimiter.Allow() {
		if triggered := b.engine.CheckStopLoss(ctx); triggered {
			b.logger.Warn("stop loss in triggered state", zap.String("pair", b.cfg.Pair.String()))
		}
	}

	// refreshing candles more often than the candle interval is wasted work
	if time.Since(b.lastCycle) >= b.cfg.CandleInterval {
		b.lastCycle = time.Now()
		b.tradeCycle(ctx)
	}

	if time.Since(b.lastReport) >= b.cfg.ReportInterval {
		b.lastReport = time.Now()
		b.dispatchReport(ctx)
	}
}

// tradeCycle evaluates one autonomous decision: enter when flat, exit when
// a position is open.
func (b *TradingBot) tradeCycle(ctx context.Context) {
	var outcome domain.Outcome
	if b.engine.PositionOpen() {
		outcome = b.engine.DecideAndMaybeSell(ctx)
	} else {
		outcome = b.engine.DecideAndMaybeBuy(ctx, b.cfg.TradeAmount)
	}

	b.logger.Info("trade cycle finished",
		zap.String("pair", b.cfg.Pair.String()),
		zap.String("outcome", outcome.String()))
}

func (b *TradingBot) dispatchReport(ctx context.Context) {
	now := time.Now()
	report := b.engine.WeeklyReport(now)

	b.notifier.Notify(ctx, fmt.Sprintf(
		"Weekly %s trading report - %s\nNumber of transactions: %d\nGains/Losses: $%s",
		b.cfg.Pair.From, now.Format("2006-01-02"), report.Count, report.NetUSD.StringFixed(2)))
}

// flushOfflineNotice sends the shutdown notification on a fresh context:
// the loop context is already cancelled at this point.
func (b *TradingBot) flushOfflineNotice() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b.notifier.Notify(ctx, fmt.Sprintf("%s bot is offline", b.cfg.Pair.String()))
}
