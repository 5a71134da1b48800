package pricer

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"eth-trade-bot-go/internal/domain"
)

// FallbackPricer tries the primary source first and falls through to the
// secondary on any error. The primary is not retried before the fallback.
type FallbackPricer struct {
	primary   Pricer
	secondary Pricer
	logger    *zap.Logger
}

// NewFallbackPricer creates a pricer with primary-to-secondary fallback.
func NewFallbackPricer(primary, secondary Pricer, logger *zap.Logger) *FallbackPricer {
	return &FallbackPricer{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

// GetPrice returns the primary source's price, the secondary source's price
// when the primary fails, or ErrPriceUnavailable when both fail.
func (p *FallbackPricer) GetPrice(ctx context.Context) (domain.PricePoint, error) {
	point, primaryErr := p.primary.GetPrice(ctx)
	if primaryErr == nil {
		return point, nil
	}

	p.logger.Warn("primary price source failed, falling back", zap.Error(primaryErr))

	point, secondaryErr := p.secondary.GetPrice(ctx)
	if secondaryErr == nil {
		p.logger.Info("fetched price from secondary source", zap.String("price", point.Price.String()))
		return point, nil
	}

	p.logger.Error("secondary price source failed",
		zap.NamedError("primary_error", primaryErr),
		zap.NamedError("secondary_error", secondaryErr))

	return domain.PricePoint{}, errors.Wrapf(domain.ErrPriceUnavailable,
		"primary: %s, secondary: %s", primaryErr, secondaryErr)
}
