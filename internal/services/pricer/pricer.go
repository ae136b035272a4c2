// Package pricer provides current price sources with fallback and caching.
package pricer

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/voldca/internal/cache"
	"github.com/vadiminshakov/voldca/internal/domain"
	"go.uber.org/zap"
)

// ErrNoPriceSource is returned when no source produced a usable price.
var ErrNoPriceSource = errors.New("no price source")

// Source returns the current price of a pair.
type Source interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

// Named attaches a name to a Source for logging.
type Named struct {
	Name   string
	Source Source
}

// Chain tries sources in order and returns the first positive price.
type Chain struct {
	l       *zap.Logger
	sources []Named
}

// NewChain creates a fallback chain; the first source is the primary one.
func NewChain(l *zap.Logger, sources ...Named) *Chain {
	return &Chain{l: l, sources: sources}
}

func (c *Chain) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	var lastErr error
	for i, s := range c.sources {
		price, err := s.Source.GetPrice(ctx, pair)
		if err == nil && !price.IsPositive() {
			err = fmt.Errorf("non-positive price %s", price.String())
		}
		if err == nil {
			if i > 0 {
				c.l.Info("price served by fallback source",
					zap.String("pair", pair.String()),
					zap.String("source", s.Name))
			}
			return price, nil
		}

		c.l.Warn("price source failed",
			zap.String("pair", pair.String()),
			zap.String("source", s.Name),
			zap.Error(err))
		lastErr = err
	}

	if lastErr == nil {
		return decimal.Zero, errors.Wrapf(ErrNoPriceSource, "%s: no sources configured", pair.String())
	}
	return decimal.Zero, errors.Wrapf(ErrNoPriceSource, "%s: %v", pair.String(), lastErr)
}

// Cached serves prices from a TTL cache.
type Cached struct {
	inner Source
	cache cache.Cache
	ttl   time.Duration
}

// NewCached wraps inner with cache.
func NewCached(inner Source, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{inner: inner, cache: c, ttl: ttl}
}

func (c *Cached) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	return cache.GetOrLoad(ctx, c.cache, "price:"+pair.String(), c.ttl, func(ctx context.Context) (decimal.Decimal, error) {
		return c.inner.GetPrice(ctx, pair)
	})
}
