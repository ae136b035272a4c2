package collector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/voldca/internal/domain"
	"github.com/vadiminshakov/voldca/internal/services/pricer"
)

// Bybit V5 serves at most this many klines per request.
const maxBybitKlines = 1000

// BybitHistory reads daily klines from the Bybit V5 public API.
type BybitHistory struct {
	client *bybit.Client
}

// NewBybitHistory creates a Bybit daily kline source.
func NewBybitHistory(client *bybit.Client) *BybitHistory {
	return &BybitHistory{client: client}
}

func (p *BybitHistory) GetDailyPrices(_ context.Context, pair domain.Pair, days int) (domain.PriceSeries, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be > 0")
	}
	if days > maxBybitKlines {
		days = maxBybitKlines
	}

	symbol := pricer.BybitSymbol(pair)
	result, err := p.client.V5().Market().GetKline(bybit.V5GetKlineParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   bybit.SymbolV5(symbol),
		Interval: bybit.Interval("D"),
		Limit:    &days,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Bybit for %s", symbol)
	}
	if result == nil {
		return nil, errors.Errorf("empty result from Bybit API for %s", symbol)
	}

	klines := result.Result.List
	times := make([]time.Time, len(klines))
	closes := make([]string, len(klines))
	for i, k := range klines {
		ms, err := strconv.ParseInt(k.StartTime, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse start time at index %d", i)
		}
		times[i] = time.UnixMilli(ms)
		closes[i] = k.Close
	}

	// Bybit lists newest first; closesToSeries sorts by date.
	return closesToSeries(times, closes)
}
