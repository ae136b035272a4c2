// Package volatility converts daily price series into annualized volatility.
package volatility

import (
	"math"

	"github.com/vadiminshakov/voldca/internal/domain"
	"github.com/vadiminshakov/voldca/pkg/indicators"
)

const tradingDaysPerYear = 365

// Calculate returns the annualized sample deviation of daily returns over the
// trailing window, in percent. Fewer than window prices or fewer than two
// returns yield domain.VolatilityUnavailable.
func Calculate(prices domain.PriceSeries, window int) domain.Volatility {
	if window < 1 || prices.Len() < window {
		return domain.VolatilityUnavailable
	}

	returns := indicators.SimpleReturns(prices.Floats())
	if len(returns) > window {
		returns = returns[len(returns)-window:]
	}

	stdev, err := indicators.SampleStdDev(returns)
	if err != nil {
		return domain.VolatilityUnavailable
	}

	return domain.VolatilityOf(stdev * math.Sqrt(tradingDaysPerYear) * 100)
}
