// Package pricer provides current spot prices for the tracked symbol.
package pricer

import (
	"context"

	"eth-trade-bot-go/internal/domain"
)

// Pricer fetches the current spot price. Implementations are bound to a
// single symbol at construction time.
type Pricer interface {
	GetPrice(ctx context.Context) (domain.PricePoint, error)
}
