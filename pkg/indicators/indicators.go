// Package indicators provides technical analysis indicators (SMA, EMA, RSI, return volatility).
package indicators

import (
	"fmt"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
)

// CalculateSMA calculates the Simple Moving Average for the given period.
// The result holds one value per complete window.
func CalculateSMA(values []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(values) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(values))
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	return helper.ChanToSlice(sma.Compute(helper.SliceToChan(values))), nil
}

// CalculateEMA calculates the Exponential Moving Average for the given period.
func CalculateEMA(values []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(values) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(values))
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	return helper.ChanToSlice(ema.Compute(helper.SliceToChan(values))), nil
}

// CalculateRSI returns the latest Relative Strength Index value.
// With wilder set, averages are seeded with the mean of the first period changes and then
// smoothed with alpha 1/period; otherwise the mean of the last period changes is used.
// A period without losses yields 100.
func CalculateRSI(values []float64, period int, wilder bool) (float64, error) {
	if period < 1 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(values) < period+1 {
		return 0, fmt.Errorf("not enough data points for RSI: need %d, got %d", period+1, len(values))
	}

	gains := make([]float64, len(values)-1)
	losses := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	var avgGain, avgLoss float64
	if wilder {
		avgGain = mean(gains[:period])
		avgLoss = mean(losses[:period])
		p := float64(period)
		for i := period; i < len(gains); i++ {
			avgGain = (avgGain*(p-1) + gains[i]) / p
			avgLoss = (avgLoss*(p-1) + losses[i]) / p
		}
	} else {
		avgGain = mean(gains[len(gains)-period:])
		avgLoss = mean(losses[len(losses)-period:])
	}

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// SimpleReturns returns r[i] = v[i+1]/v[i] - 1.
func SimpleReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}

	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

// SampleStdDev is the standard deviation with N-1 in the denominator.
func SampleStdDev(values []float64) (float64, error) {
	if len(values) < 2 {
		return 0, fmt.Errorf("not enough data points for sample deviation: need 2, got %d", len(values))
	}

	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1)), nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
