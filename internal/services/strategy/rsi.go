package strategy

import (
	"fmt"

	"github.com/vadiminshakov/voldca/internal/domain"
	"github.com/vadiminshakov/voldca/pkg/indicators"
)

// RSI vetoes purchases while the market is overbought.
type RSI struct {
	cfg domain.RSIConfig
}

// NewRSI creates the RSI veto strategy.
func NewRSI(cfg domain.RSIConfig) *RSI {
	return &RSI{cfg: cfg}
}

func (s *RSI) Name() string { return "rsi" }

// Lookback covers the seed window and some smoothing history.
func (s *RSI) Lookback() int {
	return s.cfg.Period*3 + 1
}

// Evaluate proceeds unless RSI is above the overbought threshold.
func (s *RSI) Evaluate(prices domain.PriceSeries) domain.Decision {
	if prices.Len() < s.cfg.Period+1 {
		return domain.FailOpen("rsi: insufficient data")
	}

	value, err := indicators.CalculateRSI(prices.Floats(), s.cfg.Period, s.cfg.Wilder)
	if err != nil {
		return domain.FailOpen("rsi: insufficient data")
	}

	label := SignalStrength(value)
	if value > s.cfg.Overbought {
		return domain.Veto(fmt.Sprintf("rsi %.1f (%s) above overbought %.0f", value, label, s.cfg.Overbought))
	}

	if value < s.cfg.Oversold {
		return domain.ProceedWith(1, fmt.Sprintf("rsi %.1f (%s) below oversold %.0f", value, label, s.cfg.Oversold))
	}

	return domain.ProceedWith(1, fmt.Sprintf("rsi %.1f (%s)", value, label))
}

// SignalStrength labels an RSI value.
func SignalStrength(rsi float64) string {
	switch {
	case rsi < 20:
		return "extremely oversold"
	case rsi < 30:
		return "oversold"
	case rsi < 40:
		return "weak"
	case rsi < 60:
		return "neutral"
	case rsi < 70:
		return "strong"
	case rsi < 80:
		return "overbought"
	default:
		return "extremely overbought"
	}
}
