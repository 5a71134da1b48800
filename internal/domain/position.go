package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the single open trading position tracked in memory.
// At most one position may be open at a time. Unrealized PnL is derived by
// the status reporter from the wallet balance, not stored here.
type Position struct {
	OpeningPrice decimal.Decimal
	Amount       decimal.Decimal
	EntryTime    time.Time
	Armed        bool
}
