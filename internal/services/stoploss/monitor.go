// Package stoploss guards an open position against a price drop below a
// fixed fraction of the opening price.
package stoploss

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"eth-trade-bot-go/internal/domain"
)

// State of the stop-loss monitor for the current position.
type State int

const (
	// StateDisarmed no open position.
	StateDisarmed State = iota
	// StateArmed an opening price is recorded and monitored.
	StateArmed
	// StateTriggered the threshold was crossed and the forced sell fired.
	// Terminal for the current position until it is closed and re-armed.
	StateTriggered
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateDisarmed:
		return "disarmed"
	case StateArmed:
		return "armed"
	case StateTriggered:
		return "triggered"
	default:
		return "unknown"
	}
}

// DefaultThreshold is the fractional drop from the opening price that
// forces an exit (2.5%).
var DefaultThreshold = decimal.RequireFromString("0.975")

// Monitor owns the tracked position and its armed/triggered state.
// Only the monitor and the decision engine mutate the position.
type Monitor struct {
	mu        sync.Mutex
	state     State
	position  domain.Position
	threshold decimal.Decimal
	logger    *zap.Logger
}

// NewMonitor creates a disarmed monitor with the default threshold.
func NewMonitor(logger *zap.Logger) *Monitor {
	return &Monitor{
		state:     StateDisarmed,
		threshold: DefaultThreshold,
		logger:    logger,
	}
}

// Arm records the opening price of a newly entered position and starts
// monitoring it.
func (m *Monitor) Arm(openingPrice, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.position = domain.Position{
		OpeningPrice: openingPrice,
		Amount:       amount,
		EntryTime:    time.Now(),
		Armed:        true,
	}
	m.state = StateArmed

	m.logger.Info("stop loss armed",
		zap.String("opening_price", openingPrice.String()),
		zap.String("amount", amount.String()))
}

// Disarm clears the position after it has been closed.
func (m *Monitor) Disarm() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.position = domain.Position{}
	m.state = StateDisarmed
}

// State returns the current monitor state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Position returns a copy of the tracked position.
func (m *Monitor) Position() domain.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// Check evaluates the stop-loss rule against the current price and invokes
// sell on the armed-to-triggered transition. The check is idempotent: once
// triggered, re-evaluating with the same price never fires a second sell.
//
// A successful forced sell disarms the monitor. A failed one leaves it
// triggered so the still-open position is not silently forgotten; resuming
// requires closing the position and re-arming.
func (m *Monitor) Check(ctx context.Context, currentPrice decimal.Decimal, sell func(ctx context.Context) error) (triggered bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateDisarmed:
		return false, nil
	case StateTriggered:
		// already fired for this position
		return true, nil
	}

	limit := m.position.OpeningPrice.Mul(m.threshold)
	if currentPrice.GreaterThanOrEqual(limit) {
		return false, nil
	}

	m.state = StateTriggered
	m.logger.Warn("stop loss triggered",
		zap.String("opening_price", m.position.OpeningPrice.String()),
		zap.String("current_price", currentPrice.String()),
		zap.String("limit", limit.String()))

	if err := sell(ctx); err != nil {
		m.logger.Error("forced sell failed, position remains open", zap.Error(err))
		return true, err
	}

	m.position = domain.Position{}
	m.state = StateDisarmed
	return true, nil
}
