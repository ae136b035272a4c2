package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one daily price observation.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// PriceSeries is ordered ascending by date with one point per UTC day.
type PriceSeries []PricePoint

// NewPriceSeries sorts points, keeps the latest observation for each UTC day
// and rejects non-positive prices.
func NewPriceSeries(points []PricePoint) (PriceSeries, error) {
	sorted := make([]PricePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make(PriceSeries, 0, len(sorted))
	for _, p := range sorted {
		if !p.Price.IsPositive() {
			return nil, fmt.Errorf("price at %s must be positive, got %s", p.Date.Format(time.DateOnly), p.Price.String())
		}

		p.Date = truncateDay(p.Date)
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}

	return out, nil
}

// Len returns the number of points.
func (s PriceSeries) Len() int {
	return len(s)
}

// Floats returns prices as float64 values for indicator math.
func (s PriceSeries) Floats() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i], _ = p.Price.Float64()
	}
	return out
}

// Last returns the most recent point.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// Tail returns the last n points, or the whole series when shorter.
func (s PriceSeries) Tail(n int) PriceSeries {
	if n >= len(s) || n < 0 {
		return s
	}
	return s[len(s)-n:]
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
