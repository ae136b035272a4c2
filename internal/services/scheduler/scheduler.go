// Package scheduler decides whether a purchase is due.
package scheduler

import (
	"time"

	"github.com/vadiminshakov/voldca/internal/domain"
)

// IsDue reports whether at least one frequency interval has elapsed since the
// latest trade in history. An empty history is always due.
func IsDue(history []domain.TradeRecord, freq domain.Frequency, now time.Time) bool {
	last, ok := domain.LastTradeTime(history)
	if !ok {
		return true
	}

	return now.Sub(last) >= freq.Interval()
}

// NextDue returns when the next purchase becomes due and false when one is already due.
func NextDue(history []domain.TradeRecord, freq domain.Frequency, now time.Time) (time.Time, bool) {
	if IsDue(history, freq, now) {
		return now, false
	}

	last, _ := domain.LastTradeTime(history)
	return last.Add(freq.Interval()), true
}
