package pricer

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/voldca/internal/domain"
)

// BinancePricer fetches last prices from the Binance public API without authentication.
// Stablecoin quotes are mapped to USDT, the deepest Binance quote.
type BinancePricer struct {
	client *binance.Client
}

func NewBinancePricer(client *binance.Client) *BinancePricer {
	return &BinancePricer{client: client}
}

func (p *BinancePricer) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	symbol := BinanceSymbol(pair)

	prices, err := p.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if len(prices) == 0 {
		return decimal.Zero, fmt.Errorf("binance API returned empty prices for %s", symbol)
	}

	return decimal.NewFromString(prices[0].Price)
}

// BinanceSymbol converts a pair to a Binance spot symbol.
func BinanceSymbol(pair domain.Pair) string {
	quote := pair.To
	switch quote {
	case "USDC", "USD", "":
		quote = "USDT"
	}
	return domain.Pair{From: pair.From, To: quote}.Symbol()
}
