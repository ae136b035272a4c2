package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is an executed purchase. Records are only ever appended.
type TradeRecord struct {
	Timestamp   time.Time       `json:"timestamp"`
	Asset       string          `json:"asset"`
	Price       decimal.Decimal `json:"price"`
	QuoteAmount decimal.Decimal `json:"quote_amount"`
	BaseAmount  decimal.Decimal `json:"base_amount"`
	// Volatility used for sizing, 0 when it was unavailable.
	Volatility  float64 `json:"volatility"`
	ExternalRef string  `json:"external_ref,omitempty"`
}

// NewTradeRecord creates a validated record.
func NewTradeRecord(ts time.Time, asset string, price, quote, base decimal.Decimal, vol Volatility, ref string) (TradeRecord, error) {
	if asset == "" {
		return TradeRecord{}, fmt.Errorf("asset is required")
	}
	if !price.IsPositive() {
		return TradeRecord{}, fmt.Errorf("price must be positive, got %s", price.String())
	}
	if !quote.IsPositive() {
		return TradeRecord{}, fmt.Errorf("quote amount must be positive, got %s", quote.String())
	}
	if !base.IsPositive() {
		return TradeRecord{}, fmt.Errorf("base amount must be positive, got %s", base.String())
	}

	return TradeRecord{
		Timestamp:   ts.UTC(),
		Asset:       asset,
		Price:       price,
		QuoteAmount: quote,
		BaseAmount:  base,
		Volatility:  vol.OrZero(),
		ExternalRef: ref,
	}, nil
}

// String returns a human-readable string representation.
func (r TradeRecord) String() string {
	return fmt.Sprintf("%s bought %s for %s at %s", r.Asset, r.BaseAmount.String(), r.QuoteAmount.String(), r.Price.String())
}

// LastTradeTime returns the latest timestamp in history.
func LastTradeTime(history []TradeRecord) (time.Time, bool) {
	var last time.Time
	for _, r := range history {
		if r.Timestamp.After(last) {
			last = r.Timestamp
		}
	}
	return last, !last.IsZero()
}

// RecentTrades returns records newer than days before now.
func RecentTrades(history []TradeRecord, days int, now time.Time) []TradeRecord {
	cutoff := now.Add(-time.Duration(days) * day)
	out := make([]TradeRecord, 0)
	for _, r := range history {
		if r.Timestamp.After(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// PortfolioSummary aggregates an asset's history.
type PortfolioSummary struct {
	Asset         string
	Trades        int
	TotalInvested decimal.Decimal
	TotalBase     decimal.Decimal
	// AverageCost is invested quote per unit of base.
	AverageCost   decimal.Decimal
	AverageTrade  decimal.Decimal
	AvgVolatility float64
	FirstTrade    time.Time
	LastTrade     time.Time
}

// Summarize builds a PortfolioSummary for history.
func Summarize(asset string, history []TradeRecord) PortfolioSummary {
	s := PortfolioSummary{
		Asset:         asset,
		TotalInvested: decimal.Zero,
		TotalBase:     decimal.Zero,
		AverageCost:   decimal.Zero,
		AverageTrade:  decimal.Zero,
	}
	if len(history) == 0 {
		return s
	}

	volSum := 0.0
	for _, r := range history {
		s.Trades++
		s.TotalInvested = s.TotalInvested.Add(r.QuoteAmount)
		s.TotalBase = s.TotalBase.Add(r.BaseAmount)
		volSum += r.Volatility

		if s.FirstTrade.IsZero() || r.Timestamp.Before(s.FirstTrade) {
			s.FirstTrade = r.Timestamp
		}
		if r.Timestamp.After(s.LastTrade) {
			s.LastTrade = r.Timestamp
		}
	}

	s.AverageTrade = s.TotalInvested.Div(decimal.NewFromInt(int64(s.Trades))).Round(2)
	s.AvgVolatility = volSum / float64(s.Trades)
	if s.TotalBase.IsPositive() {
		s.AverageCost = s.TotalInvested.Div(s.TotalBase).Round(2)
	}

	return s
}

// String returns a human-readable string representation.
func (s PortfolioSummary) String() string {
	if s.Trades == 0 {
		return fmt.Sprintf("%s: no trades", s.Asset)
	}
	return fmt.Sprintf("%s: %d trades, invested %s, holding %s, avg cost %s, avg trade %s, avg volatility %.1f%%, %s to %s",
		s.Asset, s.Trades, s.TotalInvested.StringFixed(2), s.TotalBase.String(), s.AverageCost.StringFixed(2),
		s.AverageTrade.StringFixed(2), s.AvgVolatility,
		s.FirstTrade.Format("2006-01-02"), s.LastTrade.Format("2006-01-02"))
}
