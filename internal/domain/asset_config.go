package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// MAKind selects the moving average flavour.
type MAKind string

const (
	MAKindSMA MAKind = "sma"
	MAKindEMA MAKind = "ema"
)

// DefaultDipThreshold applies to moving average periods without an explicit threshold.
const DefaultDipThreshold = 0.05

// RSIConfig configures the overbought veto.
type RSIConfig struct {
	Period     int
	Oversold   float64
	Overbought float64
	// Wilder selects Wilder's smoothing, otherwise a plain rolling mean is used.
	Wilder bool
}

// DipTier maps dips strictly below UpTo (fraction) to a size multiplier.
// The last tier is open-ended.
type DipTier struct {
	UpTo       float64
	Multiplier float64
}

// DefaultDipTiers are weak/moderate/strong/extreme dip boosts.
func DefaultDipTiers() []DipTier {
	return []DipTier{
		{UpTo: 0.02, Multiplier: 1.2},
		{UpTo: 0.05, Multiplier: 1.5},
		{UpTo: 0.10, Multiplier: 2.0},
		{UpTo: 0, Multiplier: 2.5},
	}
}

// MovingAverageConfig configures dip detection.
type MovingAverageConfig struct {
	Periods []int
	// DipThresholds per period as fractions (0.05 = 5%).
	DipThresholds map[int]float64
	Kind          MAKind
	Tiers         []DipTier
}

// DipThreshold returns the configured threshold for period.
func (c MovingAverageConfig) DipThreshold(period int) float64 {
	if t, ok := c.DipThresholds[period]; ok {
		return t
	}
	return DefaultDipThreshold
}

// DynamicFrequencyConfig configures the frequency advisor thresholds (annualized %).
type DynamicFrequencyConfig struct {
	LowThreshold  float64
	HighThreshold float64
}

// AssetConfig is the validated per-asset configuration. Build it with NewAssetConfig.
type AssetConfig struct {
	Symbol string
	// Market is the exchange market name used for orders, e.g. "UBTC/USDC" or "@142".
	Market string

	BaseAmount decimal.Decimal
	MinAmount  decimal.Decimal
	MaxAmount  decimal.Decimal

	Frequency        Frequency
	VolatilityWindow int
	LowVolThreshold  float64
	HighVolThreshold float64
	Enabled          bool

	// SizeDecimals is the base asset precision accepted by the exchange.
	SizeDecimals int32
	// Slippage is the limit price premium over the quote per attempt (0.005 = 0.5%).
	Slippage decimal.Decimal
	// MinOrderNotional is the smallest order the exchange accepts in quote currency.
	MinOrderNotional decimal.Decimal

	RSI              *RSIConfig
	MovingAverage    *MovingAverageConfig
	DynamicFrequency *DynamicFrequencyConfig
}

// NewAssetConfig validates cfg and returns an independent copy.
func NewAssetConfig(cfg AssetConfig) (AssetConfig, error) {
	cfg.Symbol = strings.ToUpper(strings.TrimSpace(cfg.Symbol))
	if cfg.Symbol == "" {
		return AssetConfig{}, fmt.Errorf("symbol is required")
	}
	if cfg.Market == "" {
		cfg.Market = cfg.Symbol
	}

	for name, v := range map[string]decimal.Decimal{
		"base_amount": cfg.BaseAmount,
		"min_amount":  cfg.MinAmount,
		"max_amount":  cfg.MaxAmount,
	} {
		if !v.IsPositive() {
			return AssetConfig{}, fmt.Errorf("%s: %s must be positive, got %s", cfg.Symbol, name, v.String())
		}
	}
	if !cfg.MinAmount.LessThan(cfg.MaxAmount) {
		return AssetConfig{}, fmt.Errorf("%s: min_amount %s must be less than max_amount %s",
			cfg.Symbol, cfg.MinAmount.String(), cfg.MaxAmount.String())
	}
	if cfg.BaseAmount.LessThan(cfg.MinAmount) || cfg.BaseAmount.GreaterThan(cfg.MaxAmount) {
		return AssetConfig{}, fmt.Errorf("%s: base_amount %s must be within [%s, %s]",
			cfg.Symbol, cfg.BaseAmount.String(), cfg.MinAmount.String(), cfg.MaxAmount.String())
	}

	if _, err := ParseFrequency(string(cfg.Frequency)); err != nil {
		return AssetConfig{}, fmt.Errorf("%s: %w", cfg.Symbol, err)
	}
	if cfg.VolatilityWindow < 1 {
		return AssetConfig{}, fmt.Errorf("%s: volatility_window must be positive, got %d", cfg.Symbol, cfg.VolatilityWindow)
	}
	if cfg.LowVolThreshold >= cfg.HighVolThreshold {
		return AssetConfig{}, fmt.Errorf("%s: low volatility threshold %.2f must be below high threshold %.2f",
			cfg.Symbol, cfg.LowVolThreshold, cfg.HighVolThreshold)
	}
	if cfg.SizeDecimals < 0 || cfg.SizeDecimals > 8 {
		return AssetConfig{}, fmt.Errorf("%s: size_decimals must be within [0, 8], got %d", cfg.Symbol, cfg.SizeDecimals)
	}
	if cfg.Slippage.IsNegative() {
		return AssetConfig{}, fmt.Errorf("%s: slippage must not be negative", cfg.Symbol)
	}
	if cfg.MinOrderNotional.IsNegative() {
		return AssetConfig{}, fmt.Errorf("%s: min_order_notional must not be negative", cfg.Symbol)
	}

	if cfg.RSI != nil {
		rsi := *cfg.RSI
		if rsi.Period < 2 {
			return AssetConfig{}, fmt.Errorf("%s: rsi period must be >= 2, got %d", cfg.Symbol, rsi.Period)
		}
		if rsi.Oversold < 0 || rsi.Overbought > 100 || rsi.Oversold >= rsi.Overbought {
			return AssetConfig{}, fmt.Errorf("%s: rsi thresholds must satisfy 0 <= oversold < overbought <= 100", cfg.Symbol)
		}
		cfg.RSI = &rsi
	}

	if cfg.MovingAverage != nil {
		ma, err := copyMovingAverage(*cfg.MovingAverage)
		if err != nil {
			return AssetConfig{}, fmt.Errorf("%s: %w", cfg.Symbol, err)
		}
		cfg.MovingAverage = &ma
	}

	if cfg.DynamicFrequency != nil {
		df := *cfg.DynamicFrequency
		if df.LowThreshold >= df.HighThreshold {
			return AssetConfig{}, fmt.Errorf("%s: dynamic frequency low threshold must be below high threshold", cfg.Symbol)
		}
		cfg.DynamicFrequency = &df
	}

	return cfg, nil
}

func copyMovingAverage(in MovingAverageConfig) (MovingAverageConfig, error) {
	if len(in.Periods) == 0 {
		return MovingAverageConfig{}, fmt.Errorf("moving average periods are required")
	}
	switch in.Kind {
	case "":
		in.Kind = MAKindSMA
	case MAKindSMA, MAKindEMA:
	default:
		return MovingAverageConfig{}, fmt.Errorf("unknown moving average kind %q", in.Kind)
	}

	out := MovingAverageConfig{
		Periods:       make([]int, 0, len(in.Periods)),
		DipThresholds: make(map[int]float64, len(in.DipThresholds)),
		Kind:          in.Kind,
	}

	seen := make(map[int]bool, len(in.Periods))
	for _, p := range in.Periods {
		if p < 2 {
			return MovingAverageConfig{}, fmt.Errorf("moving average period must be >= 2, got %d", p)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out.Periods = append(out.Periods, p)
	}
	sort.Ints(out.Periods)

	for p, t := range in.DipThresholds {
		if t <= 0 || t >= 1 {
			return MovingAverageConfig{}, fmt.Errorf("dip threshold for period %d must be within (0, 1), got %v", p, t)
		}
		out.DipThresholds[p] = t
	}

	tiers := in.Tiers
	if len(tiers) == 0 {
		tiers = DefaultDipTiers()
	}
	out.Tiers = make([]DipTier, len(tiers))
	copy(out.Tiers, tiers)
	for i, tier := range out.Tiers {
		if tier.Multiplier < 0 {
			return MovingAverageConfig{}, fmt.Errorf("dip tier %d multiplier must not be negative", i)
		}
		if i < len(out.Tiers)-1 && (tier.UpTo <= 0 || (i > 0 && tier.UpTo <= out.Tiers[i-1].UpTo)) {
			return MovingAverageConfig{}, fmt.Errorf("dip tier bounds must be positive and increasing")
		}
	}

	return out, nil
}

// Pair returns the trading pair for quote.
func (c AssetConfig) Pair(quote string) Pair {
	return NewPair(c.Symbol, quote)
}
