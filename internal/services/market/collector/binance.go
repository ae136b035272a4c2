package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/voldca/internal/domain"
	"github.com/vadiminshakov/voldca/internal/services/pricer"
)

// Binance serves at most this many klines per request.
const maxBinanceKlines = 1000

// BinanceHistory reads daily klines from the Binance public API.
type BinanceHistory struct {
	client *binance.Client
}

// NewBinanceHistory creates a Binance daily kline source.
func NewBinanceHistory(client *binance.Client) *BinanceHistory {
	return &BinanceHistory{client: client}
}

func (p *BinanceHistory) GetDailyPrices(ctx context.Context, pair domain.Pair, days int) (domain.PriceSeries, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be > 0")
	}
	if days > maxBinanceKlines {
		days = maxBinanceKlines
	}

	symbol := pricer.BinanceSymbol(pair)
	klines, err := p.client.NewKlinesService().
		Symbol(symbol).
		Interval("1d").
		Limit(days).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", symbol)
	}

	times := make([]time.Time, len(klines))
	closes := make([]string, len(klines))
	for i, k := range klines {
		times[i] = time.UnixMilli(k.OpenTime)
		closes[i] = k.Close
	}

	return closesToSeries(times, closes)
}
