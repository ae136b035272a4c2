package strategy

import (
	"fmt"
	"strings"

	"github.com/vadiminshakov/voldca/internal/domain"
	"github.com/vadiminshakov/voldca/pkg/indicators"
)

// Trend is derived from moving average alignment.
type Trend string

const (
	TrendBullish  Trend = "bullish"
	TrendBearish  Trend = "bearish"
	TrendSideways Trend = "sideways"
)

// Dip is the distance of the current price below one moving average.
type Dip struct {
	Period  int
	Average float64
	// Percent is (MA - price) / MA as a fraction.
	Percent float64
	Flagged bool
}

// MovingAverageDip scales purchases up when price trades below its moving averages.
type MovingAverageDip struct {
	cfg domain.MovingAverageConfig
}

// NewMovingAverageDip creates the dip strategy.
func NewMovingAverageDip(cfg domain.MovingAverageConfig) *MovingAverageDip {
	return &MovingAverageDip{cfg: cfg}
}

func (s *MovingAverageDip) Name() string { return "moving_average" }

// Lookback is the longest configured period.
func (s *MovingAverageDip) Lookback() int {
	n := 0
	for _, p := range s.cfg.Periods {
		if p > n {
			n = p
		}
	}
	return n
}

// Evaluate never vetoes; the strongest flagged dip selects the size multiplier.
func (s *MovingAverageDip) Evaluate(prices domain.PriceSeries) domain.Decision {
	dips := s.Dips(prices)
	if len(dips) == 0 {
		return domain.FailOpen("moving average: insufficient data")
	}

	var strongest *Dip
	for i := range dips {
		if !dips[i].Flagged {
			continue
		}
		if strongest == nil || dips[i].Percent > strongest.Percent {
			strongest = &dips[i]
		}
	}

	trend := trendOf(dips)
	if strongest == nil {
		return domain.ProceedWith(1, fmt.Sprintf("moving average: no dip, trend %s", trend))
	}

	mult := s.multiplier(strongest.Percent)
	return domain.ProceedWith(mult, fmt.Sprintf("moving average: %.2f%% below %s%d, trend %s, x%.1f",
		strongest.Percent*100, strings.ToLower(string(s.cfg.Kind)), strongest.Period, trend, mult))
}

// Dips computes the dip against every period the series is long enough for.
func (s *MovingAverageDip) Dips(prices domain.PriceSeries) []Dip {
	last, ok := prices.Last()
	if !ok {
		return nil
	}
	current, _ := last.Price.Float64()
	values := prices.Floats()

	dips := make([]Dip, 0, len(s.cfg.Periods))
	for _, period := range s.cfg.Periods {
		avg, err := s.average(values, period)
		if err != nil || avg <= 0 {
			continue
		}

		pct := (avg - current) / avg
		dips = append(dips, Dip{
			Period:  period,
			Average: avg,
			Percent: pct,
			Flagged: pct > s.cfg.DipThreshold(period),
		})
	}

	return dips
}

func (s *MovingAverageDip) average(values []float64, period int) (float64, error) {
	var (
		series []float64
		err    error
	)
	if s.cfg.Kind == domain.MAKindEMA {
		series, err = indicators.CalculateEMA(values, period)
	} else {
		series, err = indicators.CalculateSMA(values, period)
	}
	if err != nil {
		return 0, err
	}
	if len(series) == 0 {
		return 0, fmt.Errorf("empty moving average for period %d", period)
	}
	return series[len(series)-1], nil
}

func (s *MovingAverageDip) multiplier(dip float64) float64 {
	tiers := s.cfg.Tiers
	if len(tiers) == 0 {
		tiers = domain.DefaultDipTiers()
	}
	for i, t := range tiers {
		if i == len(tiers)-1 || t.UpTo <= 0 || dip < t.UpTo {
			return t.Multiplier
		}
	}
	return 1
}

// trendOf is bullish when price is above every average and shorter averages sit above
// longer ones, bearish for the mirror image. Dips are ordered from short to long period.
func trendOf(dips []Dip) Trend {
	if len(dips) < 2 {
		return TrendSideways
	}

	bullish, bearish := true, true
	for i := range dips {
		if dips[i].Percent >= 0 {
			bullish = false
		}
		if dips[i].Percent <= 0 {
			bearish = false
		}
		if i == 0 {
			continue
		}
		if dips[i-1].Average <= dips[i].Average {
			bullish = false
		}
		if dips[i-1].Average >= dips[i].Average {
			bearish = false
		}
	}

	switch {
	case bullish:
		return TrendBullish
	case bearish:
		return TrendBearish
	default:
		return TrendSideways
	}
}
