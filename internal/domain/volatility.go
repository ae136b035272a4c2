package domain

import "fmt"

// Volatility is an annualized volatility percentage that may be unavailable.
type Volatility struct {
	Value     float64
	Available bool
}

// VolatilityUnavailable marks insufficient history.
var VolatilityUnavailable = Volatility{}

// VolatilityOf wraps a computed value.
func VolatilityOf(v float64) Volatility {
	return Volatility{Value: v, Available: true}
}

// OrZero returns the value or 0 when unavailable.
func (v Volatility) OrZero() float64 {
	if !v.Available {
		return 0
	}
	return v.Value
}

func (v Volatility) String() string {
	if !v.Available {
		return "unavailable"
	}
	return fmt.Sprintf("%.2f%%", v.Value)
}

// Regime classifies volatility against a pair of thresholds.
type Regime string

const (
	RegimeUnknown Regime = "unknown"
	RegimeLow     Regime = "low"
	RegimeMedium  Regime = "medium"
	RegimeHigh    Regime = "high"
)

// RegimeOf classifies v: below low is low, at or above high is high.
func RegimeOf(v Volatility, low, high float64) Regime {
	switch {
	case !v.Available:
		return RegimeUnknown
	case v.Value < low:
		return RegimeLow
	case v.Value < high:
		return RegimeMedium
	default:
		return RegimeHigh
	}
}
