// Package ledger keeps the append-only record of executed trades and derives
// the weekly report from it.
package ledger

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"eth-trade-bot-go/internal/domain"
)

const reportWindow = 7 * 24 * time.Hour

// Store persists trades across restarts. Optional: a nil store keeps the
// ledger in memory only.
type Store interface {
	Save(trade domain.Trade) error
	All() ([]domain.Trade, error)
}

// Report summarizes trades of the last reporting window.
type Report struct {
	Count int
	// NetUSD is realized cash flow: +price*amount for sells,
	// -price*amount for buys. Not profit-and-loss against cost basis.
	NetUSD decimal.Decimal
}

// Ledger is the append-only trade record. Trades are never mutated or removed.
type Ledger struct {
	mu     sync.RWMutex
	trades []domain.Trade
	store  Store
	logger *zap.Logger
}

// NewLedger creates a ledger, recovering past trades from the store when
// one is provided.
func NewLedger(store Store, logger *zap.Logger) (*Ledger, error) {
	l := &Ledger{store: store, logger: logger}

	if store != nil {
		trades, err := store.All()
		if err != nil {
			return nil, errors.Wrap(err, "failed to recover trades from store")
		}
		l.trades = trades
		if len(trades) > 0 {
			logger.Info("recovered trades from store", zap.Int("count", len(trades)))
		}
	}

	return l, nil
}

// Append records an executed trade. The in-memory record always succeeds;
// a store write failure is reported but does not reject the trade.
func (l *Ledger) Append(trade domain.Trade) error {
	l.mu.Lock()
	l.trades = append(l.trades, trade)
	l.mu.Unlock()

	l.logger.Info("recorded trade",
		zap.String("side", trade.Side.String()),
		zap.String("amount", trade.Amount.String()),
		zap.String("price", trade.Price.String()),
		zap.String("tx_id", trade.TxID))

	if l.store != nil {
		if err := l.store.Save(trade); err != nil {
			return errors.Wrap(err, "failed to persist trade")
		}
	}

	return nil
}

// Len returns the number of recorded trades.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trades)
}

// WeeklyReport summarizes trades executed within the last 7 days before now.
// The window boundary is exclusive: a trade at exactly now-7d is not counted.
func (l *Ledger) WeeklyReport(now time.Time) Report {
	cutoff := now.Add(-reportWindow)

	l.mu.RLock()
	defer l.mu.RUnlock()

	report := Report{NetUSD: decimal.Zero}
	for _, trade := range l.trades {
		if !trade.Timestamp.After(cutoff) {
			continue
		}

		report.Count++
		value := trade.Price.Mul(trade.Amount)
		if trade.Side == domain.SideSell {
			report.NetUSD = report.NetUSD.Add(value)
		} else {
			report.NetUSD = report.NetUSD.Sub(value)
		}
	}

	return report
}
