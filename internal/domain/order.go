package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderStatus is how the exchange answered an immediate-or-cancel buy.
type OrderStatus string

const (
	OrderFilled OrderStatus = "filled"
	// OrderUnfilled means the exchange accepted the order but nothing executed.
	OrderUnfilled OrderStatus = "unfilled"
	OrderRejected OrderStatus = "rejected"
)

// OrderRequest is an immediate-or-cancel limit buy.
type OrderRequest struct {
	Pair Pair
	// Market is the exchange market name.
	Market     string
	Size       decimal.Decimal
	LimitPrice decimal.Decimal
	ClientID   string
}

// OrderResult is the exchange response.
type OrderResult struct {
	Status     OrderStatus
	OrderID    string
	FilledSize decimal.Decimal
	AvgPrice   decimal.Decimal
	Message    string
}

// String returns a human-readable string representation.
func (r OrderResult) String() string {
	if r.Message != "" {
		return fmt.Sprintf("%s (%s)", r.Status, r.Message)
	}
	return string(r.Status)
}
