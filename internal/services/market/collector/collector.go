// Package collector fetches daily price history from exchanges.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/voldca/internal/cache"
	"github.com/vadiminshakov/voldca/internal/domain"
	"github.com/vadiminshakov/voldca/pkg/retrier"
	"go.uber.org/zap"
)

// ErrHistoryUnavailable is returned when no source produced price history.
var ErrHistoryUnavailable = errors.New("price history unavailable")

// Source returns up to days daily closes for pair, oldest first.
type Source interface {
	GetDailyPrices(ctx context.Context, pair domain.Pair, days int) (domain.PriceSeries, error)
}

// Named attaches a name to a Source for logging.
type Named struct {
	Name   string
	Source Source
}

// Chain tries sources in order, retrying each a few times.
type Chain struct {
	l       *zap.Logger
	retrier *retrier.Retrier
	sources []Named
}

// NewChain creates a fallback chain; the first source is the primary one.
func NewChain(l *zap.Logger, r *retrier.Retrier, sources ...Named) *Chain {
	if r == nil {
		r = retrier.New(retrier.WithMaxRetries(2), retrier.WithInitialInterval(500*time.Millisecond))
	}
	return &Chain{l: l, retrier: r, sources: sources}
}

func (c *Chain) GetDailyPrices(ctx context.Context, pair domain.Pair, days int) (domain.PriceSeries, error) {
	var lastErr error
	for _, s := range c.sources {
		series, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) (domain.PriceSeries, error) {
			return s.Source.GetDailyPrices(ctx, pair, days)
		})
		if err == nil && series.Len() == 0 {
			err = fmt.Errorf("empty history")
		}
		if err == nil {
			return series, nil
		}

		c.l.Warn("history source failed",
			zap.String("pair", pair.String()),
			zap.String("source", s.Name),
			zap.Error(err))
		lastErr = err
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no sources configured")
	}
	return nil, errors.Wrapf(ErrHistoryUnavailable, "%s: %v", pair.String(), lastErr)
}

// Cached serves history from a TTL cache.
type Cached struct {
	inner Source
	cache cache.Cache
	ttl   time.Duration
}

// NewCached wraps inner with cache.
func NewCached(inner Source, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{inner: inner, cache: c, ttl: ttl}
}

func (c *Cached) GetDailyPrices(ctx context.Context, pair domain.Pair, days int) (domain.PriceSeries, error) {
	key := fmt.Sprintf("history:%s:%d", pair.String(), days)
	return cache.GetOrLoad(ctx, c.cache, key, c.ttl, func(ctx context.Context) (domain.PriceSeries, error) {
		return c.inner.GetDailyPrices(ctx, pair, days)
	})
}

// closesToSeries builds a series from (open time, close string) pairs.
func closesToSeries(times []time.Time, closes []string) (domain.PriceSeries, error) {
	points := make([]domain.PricePoint, 0, len(closes))
	for i, raw := range closes {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse close price at index %d", i)
		}
		points = append(points, domain.PricePoint{Date: times[i], Price: price})
	}

	return domain.NewPriceSeries(points)
}
