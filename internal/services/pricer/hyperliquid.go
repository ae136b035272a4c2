package pricer

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"github.com/vadiminshakov/voldca/internal/domain"
)

// HyperliquidPricer fetches mid prices from Hyperliquid public Info API.
type HyperliquidPricer struct {
	info *hyperliquid.Info
	// markets maps asset symbol to the spot market key, e.g. "BTC" -> "@142".
	markets map[string]string
}

func NewHyperliquidPricer(info *hyperliquid.Info, markets map[string]string) *HyperliquidPricer {
	return &HyperliquidPricer{info: info, markets: markets}
}

func (p *HyperliquidPricer) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	if p.info == nil {
		return decimal.Zero, fmt.Errorf("hyperliquid info client is nil")
	}

	mids, err := p.info.AllMids(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	// spot mids are keyed by market name, perp mids by base coin
	keys := []string{p.markets[pair.From], pair.From}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if mid, ok := mids[key]; ok && mid != "" {
			return decimal.NewFromString(mid)
		}
	}

	return decimal.Zero, fmt.Errorf("hyperliquid API returned empty mid price for %s", pair.From)
}
