package strategy

import (
	"fmt"
	"math"

	"github.com/vadiminshakov/voldca/internal/domain"
	"github.com/vadiminshakov/voldca/internal/services/volatility"
)

const (
	minFrequencyMultiplier = 0.3
	maxFrequencyMultiplier = 3.0
)

// DynamicFrequency recommends a purchase frequency from volatility and rescales
// the purchase when the recommendation differs from the configured frequency.
type DynamicFrequency struct {
	cfg     domain.DynamicFrequencyConfig
	current domain.Frequency
	window  int
}

// NewDynamicFrequency creates the frequency advisor.
func NewDynamicFrequency(cfg domain.DynamicFrequencyConfig, current domain.Frequency, window int) *DynamicFrequency {
	return &DynamicFrequency{cfg: cfg, current: current, window: window}
}

func (s *DynamicFrequency) Name() string { return "dynamic_frequency" }

func (s *DynamicFrequency) Lookback() int { return s.window + 5 }

// Recommend maps volatility to a frequency.
func (s *DynamicFrequency) Recommend(v float64) domain.Frequency {
	switch {
	case v < s.cfg.LowThreshold:
		return domain.FrequencyMonthly
	case v < s.cfg.HighThreshold:
		return domain.FrequencyWeekly
	default:
		return domain.FrequencyDaily
	}
}

// Evaluate never vetoes.
func (s *DynamicFrequency) Evaluate(prices domain.PriceSeries) domain.Decision {
	vol := volatility.Calculate(prices, s.window)
	if !vol.Available {
		return domain.FailOpen("dynamic frequency: insufficient data")
	}

	rec := s.Recommend(vol.Value)
	confidence := s.confidence(vol.Value)
	if rec == s.current {
		return domain.ProceedWith(1, fmt.Sprintf("dynamic frequency: %s fits volatility %s (%s confidence)",
			rec, vol, confidence))
	}

	mult := s.current.Weight() / rec.Weight()
	mult = math.Max(minFrequencyMultiplier, math.Min(maxFrequencyMultiplier, mult))

	return domain.ProceedWith(mult, fmt.Sprintf("dynamic frequency: volatility %s suggests %s over %s (%s confidence), x%.2f",
		vol, rec, s.current, confidence, mult))
}

func (s *DynamicFrequency) confidence(v float64) string {
	switch {
	case v < s.cfg.LowThreshold*0.8 || v > s.cfg.HighThreshold*1.2:
		return "high"
	case math.Abs(v-s.cfg.LowThreshold) < 5 || math.Abs(v-s.cfg.HighThreshold) < 5:
		return "low"
	default:
		return "medium"
	}
}
