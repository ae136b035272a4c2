package clients

import (
	"github.com/hirokisan/bybit/v2"
)

// NewBybitPublicClient creates a client without API keys for public market data only.
func NewBybitPublicClient() *bybit.Client {
	return bybit.NewClient()
}
