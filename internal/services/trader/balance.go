package trader

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/voldca/internal/cache"
)

// DefaultBalanceTTL is how long a fetched balance stays fresh.
const DefaultBalanceTTL = 30 * time.Second

// BalanceSource returns the free balance of a currency.
type BalanceSource interface {
	GetBalance(ctx context.Context, currency string) (decimal.Decimal, error)
}

// CachedBalance serves balances from c for ttl. Invalidate after trading.
type CachedBalance struct {
	inner BalanceSource
	c     cache.Cache
	ttl   time.Duration
}

func NewCachedBalance(inner BalanceSource, c cache.Cache, ttl time.Duration) *CachedBalance {
	if ttl <= 0 {
		ttl = DefaultBalanceTTL
	}
	return &CachedBalance{inner: inner, c: c, ttl: ttl}
}

func balanceKey(currency string) string {
	return "balance:" + strings.ToUpper(currency)
}

func (b *CachedBalance) GetBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	return cache.GetOrLoad(ctx, b.c, balanceKey(currency), b.ttl, func(ctx context.Context) (decimal.Decimal, error) {
		return b.inner.GetBalance(ctx, currency)
	})
}

// Invalidate drops the cached balance of currency.
func (b *CachedBalance) Invalidate(ctx context.Context, currency string) error {
	return b.c.Invalidate(ctx, balanceKey(currency))
}
