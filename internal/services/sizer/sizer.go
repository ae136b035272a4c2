// Package sizer maps volatility to a purchase amount in quote currency.
package sizer

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/voldca/internal/domain"
)

const quoteDecimals = 2

// Size returns the amount to spend for the given volatility.
// Calm markets buy the maximum, turbulent markets the minimum, and values in between
// are interpolated linearly. Unavailable volatility falls back to the base amount.
func Size(vol domain.Volatility, cfg domain.AssetConfig) decimal.Decimal {
	if !vol.Available {
		return cfg.BaseAmount
	}

	switch {
	case vol.Value <= cfg.LowVolThreshold:
		return cfg.MaxAmount
	case vol.Value >= cfg.HighVolThreshold:
		return cfg.MinAmount
	}

	high := decimal.NewFromFloat(cfg.HighVolThreshold)
	low := decimal.NewFromFloat(cfg.LowVolThreshold)
	ratio := high.Sub(decimal.NewFromFloat(vol.Value)).Div(high.Sub(low))

	size := cfg.MinAmount.Add(ratio.Mul(cfg.MaxAmount.Sub(cfg.MinAmount))).Round(quoteDecimals)

	// rounding must not escape the band
	if size.GreaterThan(cfg.MaxAmount) {
		return cfg.MaxAmount
	}
	if size.LessThan(cfg.MinAmount) {
		return cfg.MinAmount
	}
	return size
}
