// Package engine applies the entry and exit rules and executes swaps.
// All expected failures (price, data, funding, execution) are caught at this
// boundary and resolved to a no-op outcome for the cycle; they never
// propagate to terminate the scheduler loop.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"eth-trade-bot-go/internal/domain"
	"eth-trade-bot-go/internal/services/ledger"
	"eth-trade-bot-go/internal/services/stoploss"
)

// DefaultFundingRetryWait is how long a buy waits before its single
// balance re-check.
const DefaultFundingRetryWait = 10 * time.Minute

type pricersvc interface {
	GetPrice(ctx context.Context) (domain.PricePoint, error)
}

type marketsvc interface {
	Refresh(ctx context.Context) (domain.IndicatorSnapshot, error)
}

type executorsvc interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
	BuySwap(ctx context.Context, amountETH decimal.Decimal) (string, error)
	SellSwap(ctx context.Context, amountETH decimal.Decimal) (string, error)
}

type notifysvc interface {
	Notify(ctx context.Context, message string)
}

type ledgersvc interface {
	Append(trade domain.Trade) error
	WeeklyReport(now time.Time) ledger.Report
}

// Engine evaluates the VWAP rules and submits swaps. Buy and sell entry
// points are safe to invoke concurrently from the scheduler loop and manual
// triggers: a single mutex guards every evaluate-and-possibly-execute path.
// The funding-guard wait is deliberately outside that mutex so a suspended
// buy cannot stall unrelated operations.
type Engine struct {
	mu sync.Mutex

	pair             domain.Pair
	tradeAmount      decimal.Decimal
	fundingRetryWait time.Duration

	pricer   pricersvc
	market   marketsvc
	executor executorsvc
	notifier notifysvc
	ledger   ledgersvc
	monitor  *stoploss.Monitor

	logger *zap.Logger
}

// New creates a decision engine. tradeAmount is the ETH amount used for
// sells when no tracked position records one. fundingRetryWait of zero gets
// the 10-minute default.
func New(logger *zap.Logger, pair domain.Pair, tradeAmount decimal.Decimal,
	pricer pricersvc, market marketsvc, executor executorsvc,
	notifier notifysvc, ledgerSvc ledgersvc, monitor *stoploss.Monitor,
	fundingRetryWait time.Duration) *Engine {

	if fundingRetryWait <= 0 {
		fundingRetryWait = DefaultFundingRetryWait
	}

	return &Engine{
		pair:             pair,
		tradeAmount:      tradeAmount,
		fundingRetryWait: fundingRetryWait,
		pricer:           pricer,
		market:           market,
		executor:         executor,
		notifier:         notifier,
		ledger:           ledgerSvc,
		monitor:          monitor,
		logger:           logger,
	}
}

// DecideAndMaybeBuy checks funding, evaluates the entry rule and submits a
// buy swap when the latest close is above the window VWAP.
func (e *Engine) DecideAndMaybeBuy(ctx context.Context, amountETH decimal.Decimal) domain.Outcome {
	if amountETH.LessThanOrEqual(decimal.Zero) {
		return domain.Skipped("buy amount must be positive")
	}

	// an already-open position should not sit through the funding wait
	if e.monitor.State() != stoploss.StateDisarmed {
		return domain.Skipped("position already open")
	}

	if outcome, funded := e.ensureFunded(ctx, amountETH); !funded {
		return outcome
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// re-check under the mutex: only one position may be open at a time
	if e.monitor.State() != stoploss.StateDisarmed {
		reason := "position already open"
		e.notifier.Notify(ctx, "Buy order not executed: "+reason)
		return domain.Skipped(reason)
	}

	price, err := e.pricer.GetPrice(ctx)
	if err != nil {
		e.failCycle(ctx, "buy order not executed: price unavailable", err)
		return domain.Skipped("price unavailable")
	}

	snapshot, err := e.market.Refresh(ctx)
	if err != nil {
		e.failCycle(ctx, "buy order not executed: market data unavailable", err)
		return domain.Skipped("market data unavailable")
	}

	if snapshot.Close.LessThanOrEqual(snapshot.VWAP) {
		reason := fmt.Sprintf("current price %s is not greater than VWAP %s",
			snapshot.Close.String(), snapshot.VWAP.String())
		e.notifier.Notify(ctx, "Buy order not executed: "+reason)
		return domain.Skipped(reason)
	}

	txID, err := e.executor.BuySwap(ctx, amountETH)
	if err != nil {
		e.failCycle(ctx, "buy order failed during execution", err)
		return domain.Abandoned("swap execution failed")
	}

	e.record(domain.SideBuy, amountETH, price.Price, txID)
	e.monitor.Arm(price.Price, amountETH)
	e.notifier.Notify(ctx, fmt.Sprintf("Buy order executed: %s ETH at $%s, tx %s",
		amountETH.String(), price.Price.String(), txID))

	return domain.Executed(txID)
}

// DecideAndMaybeSell evaluates the discretionary exit rule and submits a
// sell swap when the latest close is below the window VWAP.
func (e *Engine) DecideAndMaybeSell(ctx context.Context) domain.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot, err := e.market.Refresh(ctx)
	if err != nil {
		e.failCycle(ctx, "sell order not executed: market data unavailable", err)
		return domain.Skipped("market data unavailable")
	}

	if snapshot.Close.GreaterThanOrEqual(snapshot.VWAP) {
		reason := fmt.Sprintf("current price %s is not less than VWAP %s",
			snapshot.Close.String(), snapshot.VWAP.String())
		e.notifier.Notify(ctx, "Sell order not executed: "+reason)
		return domain.Skipped(reason)
	}

	price, err := e.pricer.GetPrice(ctx)
	if err != nil {
		e.failCycle(ctx, "sell order not executed: price unavailable", err)
		return domain.Skipped("price unavailable")
	}

	amount := e.tradeAmount
	if position := e.monitor.Position(); position.Armed {
		amount = position.Amount
	}

	txID, err := e.executor.SellSwap(ctx, amount)
	if err != nil {
		e.failCycle(ctx, "sell order failed during execution", err)
		return domain.Skipped("swap execution failed")
	}

	e.record(domain.SideSell, amount, price.Price, txID)
	e.monitor.Disarm()
	e.notifier.Notify(ctx, fmt.Sprintf("Sell order executed: %s ETH at $%s, tx %s",
		amount.String(), price.Price.String(), txID))

	return domain.Executed(txID)
}

// CheckStopLoss evaluates the stop-loss rule once and fires the forced sell
// on the armed-to-triggered transition. Returns whether the stop loss is in
// the triggered state for the current position.
func (e *Engine) CheckStopLoss(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.monitor.State() == stoploss.StateDisarmed {
		return false
	}

	price, err := e.pricer.GetPrice(ctx)
	if err != nil {
		// no decision possible this cycle
		e.logger.Warn("stop loss check skipped, price unavailable", zap.Error(err))
		return false
	}

	position := e.monitor.Position()

	triggered, err := e.monitor.Check(ctx, price.Price, func(ctx context.Context) error {
		txID, sellErr := e.executor.SellSwap(ctx, position.Amount)
		if sellErr != nil {
			return sellErr
		}

		e.record(domain.SideSell, position.Amount, price.Price, txID)
		e.notifier.Notify(ctx, fmt.Sprintf("Stop loss triggered! Opening price: $%s, sold price: $%s, tx %s",
			position.OpeningPrice.String(), price.Price.String(), txID))
		return nil
	})
	if err != nil {
		e.notifier.Notify(ctx, fmt.Sprintf(
			"Stop loss sell failed, position is still open and needs manual intervention: %s", err))
	}

	return triggered
}

// CurrentStatus reports wallet balance, current price and unrealized PnL.
func (e *Engine) CurrentStatus(ctx context.Context) (domain.Status, error) {
	balance, err := e.executor.Balance(ctx)
	if err != nil {
		return domain.Status{}, err
	}

	price, err := e.pricer.GetPrice(ctx)
	if err != nil {
		return domain.Status{}, err
	}

	pnl := decimal.Zero
	if position := e.monitor.Position(); position.Armed {
		pnl = price.Price.Sub(position.OpeningPrice).Mul(balance)
	}

	return domain.Status{
		Balance:       balance,
		Price:         price.Price,
		UnrealizedPnL: pnl,
	}, nil
}

// WeeklyReport summarizes the trades of the last seven days before now.
func (e *Engine) WeeklyReport(now time.Time) ledger.Report {
	return e.ledger.WeeklyReport(now)
}

// PositionOpen reports whether a position is currently tracked.
func (e *Engine) PositionOpen() bool {
	return e.monitor.State() != stoploss.StateDisarmed
}

// ensureFunded verifies the wallet covers amountETH, waiting once for the
// configured interval before the single re-check. Runs outside the trade
// mutex: the wait must not block concurrent operations.
func (e *Engine) ensureFunded(ctx context.Context, amountETH decimal.Decimal) (domain.Outcome, bool) {
	balance, err := e.executor.Balance(ctx)
	if err != nil {
		e.failCycle(ctx, "buy order not executed: balance check failed", err)
		return domain.Skipped("balance unavailable"), false
	}

	if balance.GreaterThanOrEqual(amountETH) {
		return domain.Outcome{}, true
	}

	e.notifier.Notify(ctx, fmt.Sprintf(
		"Not enough ETH to execute buy order. Available: %s ETH, required: %s ETH. Retrying in %s.",
		balance.String(), amountETH.String(), e.fundingRetryWait))

	select {
	case <-ctx.Done():
		return domain.Abandoned("cancelled while waiting for funds"), false
	case <-time.After(e.fundingRetryWait):
	}

	balance, err = e.executor.Balance(ctx)
	if err != nil {
		e.failCycle(ctx, "buy order not executed: balance re-check failed", err)
		return domain.Skipped("balance unavailable"), false
	}

	if balance.GreaterThanOrEqual(amountETH) {
		return domain.Outcome{}, true
	}

	e.notifier.Notify(ctx, fmt.Sprintf(
		"Retry failed. Still not enough ETH to execute buy order. Available: %s ETH, required: %s ETH.",
		balance.String(), amountETH.String()))

	return domain.Abandoned(domain.ErrInsufficientFunds.Error()), false
}

// failCycle logs and notifies an expected failure that turned the cycle
// into a no-op.
func (e *Engine) failCycle(ctx context.Context, message string, err error) {
	e.logger.Error(message, zap.String("pair", e.pair.String()), zap.Error(err))
	e.notifier.Notify(ctx, fmt.Sprintf("%s: %s", message, err))
}

func (e *Engine) record(side domain.Side, amount, price decimal.Decimal, txID string) {
	trade := domain.Trade{
		ID:        uuid.New().String(),
		Side:      side,
		Amount:    amount,
		Price:     price,
		TxID:      txID,
		Timestamp: time.Now(),
	}

	if err := e.ledger.Append(trade); err != nil {
		e.logger.Error("failed to persist trade", zap.Error(err), zap.String("trade", trade.String()))
	}
}
