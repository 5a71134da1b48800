package domain

import "github.com/pkg/errors"

// Sentinel errors for the expected failure modes of a trading cycle.
// All of them are caught at the engine or monitor boundary and resolve
// to a no-op for that cycle; none may terminate the scheduler loop.
var (
	// ErrPriceUnavailable both price sources failed. Callers must treat this
	// as "no decision possible this cycle", never as a zero price.
	ErrPriceUnavailable = errors.New("price unavailable from all sources")

	// ErrDataUnavailable candle fetch or parse failed, or there is not enough
	// history to compute indicators.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrInsufficientFunds wallet balance is below the requested amount after
	// the single funding retry.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrExecutionFailed transaction build, sign or broadcast failed.
	ErrExecutionFailed = errors.New("execution failed")
)
