// Package executor submits swap transactions to the chain and reports
// wallet funding.
package executor

import (
	"context"

	"github.com/shopspring/decimal"
)

// Executor is the chain-execution interface. A returned transaction id means
// the broadcast was accepted by the node; mining confirmation is not awaited.
type Executor interface {
	// Balance returns the wallet's spendable native currency balance in ETH.
	Balance(ctx context.Context) (decimal.Decimal, error)
	// BuySwap swaps amountETH of native currency for the configured token.
	BuySwap(ctx context.Context, amountETH decimal.Decimal) (txID string, err error)
	// SellSwap swaps amountETH worth of token back to native currency.
	SellSwap(ctx context.Context, amountETH decimal.Decimal) (txID string, err error)
}
