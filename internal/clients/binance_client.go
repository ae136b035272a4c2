package clients

import (
	"github.com/adshao/go-binance/v2"
)

// NewBinancePublicClient creates a client without API keys for public market data only.
func NewBinancePublicClient() *binance.Client {
	return binance.NewClient("", "")
}
