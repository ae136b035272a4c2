package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/vadiminshakov/voldca/internal/domain"
)

// FormatOutcome renders an outcome for chat. Schedule skips and other
// routine skips are not worth a message and return false.
func FormatOutcome(o domain.Outcome) (string, bool) {
	var b strings.Builder

	switch o.Status {
	case domain.OutcomeRecorded:
		if o.Record == nil {
			return "", false
		}
		r := o.Record
		fmt.Fprintf(&b, "✅ <b>%s bought</b>\n", html.EscapeString(o.Asset))
		fmt.Fprintf(&b, "Spent: %s\n", r.QuoteAmount.StringFixed(2))
		fmt.Fprintf(&b, "Received: %s\n", r.BaseAmount.String())
		fmt.Fprintf(&b, "Price: %s\n", r.Price.StringFixed(2))
		fmt.Fprintf(&b, "Volatility: %s", o.Volatility.String())
	case domain.OutcomeFailed:
		fmt.Fprintf(&b, "❌ <b>%s purchase failed</b>\n", html.EscapeString(o.Asset))
		fmt.Fprintf(&b, "Stage: %s\n", o.Stage)
		fmt.Fprintf(&b, "Reason: %s", html.EscapeString(o.Reason))
		if o.Cause != nil {
			fmt.Fprintf(&b, "\nError: %s", html.EscapeString(o.Cause.Error()))
		}
	case domain.OutcomeSkipped:
		if o.Stage != domain.StageSizing {
			return "", false
		}
		fmt.Fprintf(&b, "⏸ <b>%s purchase skipped</b>\n", html.EscapeString(o.Asset))
		fmt.Fprintf(&b, "Reason: %s", html.EscapeString(o.Reason))
	default:
		return "", false
	}

	return b.String(), true
}
