// Package domain defines core data structures used throughout the DCA bot.
package domain

import (
	"fmt"
	"strings"
)

// Pair is the asset bought and the quote currency it is paid with.
type Pair struct {
	// From base asset symbol.
	From string
	// To quote currency symbol.
	To string
}

// NewPair builds an upper-cased pair.
func NewPair(base, quote string) Pair {
	return Pair{From: strings.ToUpper(base), To: strings.ToUpper(quote)}
}

// String returns the string representation.
func (p Pair) String() string {
	return fmt.Sprintf("%s_%s", p.From, p.To)
}

// Symbol returns the concatenated symbol representation used by centralized exchanges.
func (p Pair) Symbol() string {
	return fmt.Sprintf("%s%s", p.From, p.To)
}
