// Package strategy holds the optional indicator strategies that adjust or veto a purchase.
package strategy

import (
	"github.com/vadiminshakov/voldca/internal/domain"
)

// Strategy evaluates a daily price series and returns a purchase decision.
// Strategies fail open: missing data never vetoes a purchase.
type Strategy interface {
	Name() string
	// Lookback is the number of daily prices the strategy wants.
	Lookback() int
	Evaluate(prices domain.PriceSeries) domain.Decision
}

// FromConfig builds the strategies enabled in cfg, RSI first.
func FromConfig(cfg domain.AssetConfig) []Strategy {
	out := make([]Strategy, 0, 3)
	if cfg.RSI != nil {
		out = append(out, NewRSI(*cfg.RSI))
	}
	if cfg.MovingAverage != nil {
		out = append(out, NewMovingAverageDip(*cfg.MovingAverage))
	}
	if cfg.DynamicFrequency != nil {
		out = append(out, NewDynamicFrequency(*cfg.DynamicFrequency, cfg.Frequency, cfg.VolatilityWindow))
	}
	return out
}

// Evaluation is one strategy's decision.
type Evaluation struct {
	Strategy string
	Decision domain.Decision
}

// EvaluateAll runs every strategy and composes their decisions.
func EvaluateAll(strategies []Strategy, prices domain.PriceSeries) (domain.Decision, []Evaluation) {
	evals := make([]Evaluation, 0, len(strategies))
	decisions := make([]domain.Decision, 0, len(strategies))

	for _, s := range strategies {
		d := s.Evaluate(prices)
		evals = append(evals, Evaluation{Strategy: s.Name(), Decision: d})
		decisions = append(decisions, d)
	}

	return domain.Compose(decisions...), evals
}

// Lookback returns the largest lookback among strategies.
func Lookback(strategies []Strategy) int {
	n := 0
	for _, s := range strategies {
		if l := s.Lookback(); l > n {
			n = l
		}
	}
	return n
}
