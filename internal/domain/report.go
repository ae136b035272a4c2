package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RecentWindowDays is the lookback of the recent activity line in a report.
const RecentWindowDays = 30

// AssetReport is what -stats prints for one asset.
type AssetReport struct {
	Summary        PortfolioSummary
	RecentTrades   int
	RecentInvested decimal.Decimal
	// LastCycle is the latest journaled cycle, nil when none was journaled.
	LastCycle *CycleEvent
}

// NewAssetReport summarizes history and the trades of the last RecentWindowDays.
func NewAssetReport(asset string, history []TradeRecord, last *CycleEvent, now time.Time) AssetReport {
	r := AssetReport{
		Summary:        Summarize(asset, history),
		RecentInvested: decimal.Zero,
		LastCycle:      last,
	}
	for _, rec := range RecentTrades(history, RecentWindowDays, now) {
		r.RecentTrades++
		r.RecentInvested = r.RecentInvested.Add(rec.QuoteAmount)
	}
	return r
}

func (r AssetReport) String() string {
	var b strings.Builder
	b.WriteString(r.Summary.String())
	fmt.Fprintf(&b, "\n  last %dd: %d trades, invested %s", RecentWindowDays, r.RecentTrades, r.RecentInvested.StringFixed(2))

	if r.LastCycle == nil {
		b.WriteString("\n  last cycle: none journaled")
		return b.String()
	}

	c := r.LastCycle
	fmt.Fprintf(&b, "\n  last cycle: %s %s at %s", c.Timestamp.Format(time.RFC3339), c.Status, c.Stage)
	if c.Reason != "" {
		fmt.Fprintf(&b, ": %s", c.Reason)
	}
	return b.String()
}
