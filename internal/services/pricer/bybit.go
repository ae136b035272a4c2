package pricer

import (
	"context"
	"fmt"

	"github.com/hirokisan/bybit/v2"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/voldca/internal/domain"
)

// BybitPricer reads spot last prices from the Bybit V5 public API.
type BybitPricer struct {
	client *bybit.Client
}

func NewBybitPricer(client *bybit.Client) *BybitPricer {
	return &BybitPricer{client: client}
}

func (p *BybitPricer) GetPrice(_ context.Context, pair domain.Pair) (decimal.Decimal, error) {
	symbol := bybit.SymbolV5(BybitSymbol(pair))

	result, err := p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   &symbol,
	})
	if err != nil {
		return decimal.Zero, err
	}

	if len(result.Result.Spot.List) == 0 {
		return decimal.Zero, fmt.Errorf("bybit API returned empty prices for %s", symbol)
	}

	return decimal.NewFromString(result.Result.Spot.List[0].LastPrice)
}

// BybitSymbol converts a pair to a Bybit spot symbol. Bybit quotes the same
// USDT books as Binance, so stablecoin quotes map the same way.
func BybitSymbol(pair domain.Pair) string {
	return BinanceSymbol(pair)
}
