package domain

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is how often a purchase is due.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

const day = 24 * time.Hour

// ParseFrequency converts a config string into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return f, nil
	default:
		return "", fmt.Errorf("unknown frequency %q, expected daily, weekly or monthly", s)
	}
}

// Interval returns the minimum time between two purchases.
func (f Frequency) Interval() time.Duration {
	switch f {
	case FrequencyDaily:
		return day
	case FrequencyMonthly:
		return 30 * day
	default:
		return 7 * day
	}
}

// Weight is the number of days one purchase covers.
func (f Frequency) Weight() float64 {
	return f.Interval().Hours() / 24
}

func (f Frequency) String() string {
	return string(f)
}
