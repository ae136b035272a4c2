package domain

import "strings"

// Decision is what an indicator strategy contributes to a purchase.
type Decision struct {
	Proceed        bool
	Reason         string
	SizeMultiplier float64
}

// ProceedWith is a non-vetoing decision with the given multiplier.
func ProceedWith(multiplier float64, reason string) Decision {
	return Decision{Proceed: true, Reason: reason, SizeMultiplier: multiplier}
}

// FailOpen is the decision used when a strategy lacks the data it needs.
func FailOpen(reason string) Decision {
	return ProceedWith(1, reason)
}

// Veto skips the purchase.
func Veto(reason string) Decision {
	return Decision{Proceed: false, Reason: reason, SizeMultiplier: 1}
}

// Compose multiplies size multipliers and ANDs proceed flags.
// An empty list proceeds with multiplier 1.
func Compose(decisions ...Decision) Decision {
	out := Decision{Proceed: true, SizeMultiplier: 1}
	reasons := make([]string, 0, len(decisions))
	vetoes := make([]string, 0)

	for _, d := range decisions {
		out.SizeMultiplier *= d.SizeMultiplier
		if !d.Proceed {
			out.Proceed = false
			vetoes = append(vetoes, d.Reason)
		}
		if d.Reason != "" {
			reasons = append(reasons, d.Reason)
		}
	}

	if out.Proceed {
		out.Reason = strings.Join(reasons, "; ")
	} else {
		out.Reason = strings.Join(vetoes, "; ")
	}

	return out
}
