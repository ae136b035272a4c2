package collector

import (
	"context"
	"fmt"
	"time"

	hyperliquid "github.com/sonirico/go-hyperliquid"
	"github.com/vadiminshakov/voldca/internal/domain"
)

const day = 24 * time.Hour

// HyperliquidHistory reads daily candles from Hyperliquid.
type HyperliquidHistory struct {
	info *hyperliquid.Info
	// markets maps asset symbol to the spot market key used for candles.
	markets map[string]string
}

// NewHyperliquidHistory creates a Hyperliquid daily candle source.
func NewHyperliquidHistory(info *hyperliquid.Info, markets map[string]string) *HyperliquidHistory {
	return &HyperliquidHistory{info: info, markets: markets}
}

func (p *HyperliquidHistory) GetDailyPrices(ctx context.Context, pair domain.Pair, days int) (domain.PriceSeries, error) {
	if p.info == nil {
		return nil, fmt.Errorf("hyperliquid info is nil")
	}
	if days <= 0 {
		return nil, fmt.Errorf("days must be > 0")
	}

	coin := p.markets[pair.From]
	if coin == "" {
		coin = pair.From
	}

	endMs := time.Now().UnixMilli()
	// one extra candle covers the unfinished current day
	startMs := endMs - int64(days+1)*day.Milliseconds()

	candles, err := p.info.CandlesSnapshot(ctx, coin, "1d", startMs, endMs)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles from hyperliquid for %s", coin)
	}
	if len(candles) > days {
		candles = candles[len(candles)-days:]
	}

	times := make([]time.Time, len(candles))
	closes := make([]string, len(candles))
	for i, c := range candles {
		times[i] = time.UnixMilli(c.TimeOpen)
		closes[i] = c.Close
	}

	return closesToSeries(times, closes)
}
