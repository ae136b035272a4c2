// Package trader places immediate-or-cancel spot buys and reports balances.
package trader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"github.com/vadiminshakov/voldca/internal/domain"
)

const (
	// Hyperliquid accepts at most five significant figures in a price.
	priceSignificantFigures = 5
	maxSpotPriceDecimals    = 8
)

type HyperliquidTrader struct {
	ex          *hyperliquid.Exchange
	info        *hyperliquid.Info
	accountAddr string
}

func NewHyperliquidTrader(ex *hyperliquid.Exchange, accountAddr string) (*HyperliquidTrader, error) {
	if ex == nil {
		return nil, fmt.Errorf("hyperliquid exchange is nil")
	}
	if accountAddr == "" {
		return nil, fmt.Errorf("hyperliquid account address is empty")
	}

	return &HyperliquidTrader{
		ex:          ex,
		info:        ex.Info(),
		accountAddr: accountAddr,
	}, nil
}

// convert a free-form client ID into a valid Hyperliquid cloid (0x + 32 hex chars)
func cloidFromID(id string) string {
	s := strings.TrimSpace(id)
	if s == "" {
		s = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	sum := sha256.Sum256([]byte(s))
	return "0x" + hex.EncodeToString(sum[:16])
}

// PlaceOrder submits an IOC limit buy. Exchange-side rejections are returned as
// OrderRejected results; transport failures are returned as errors.
func (t *HyperliquidTrader) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	size, _ := req.Size.Float64()
	px, _ := RoundPrice(req.LimitPrice).Float64()

	cloid := cloidFromID(req.ClientID)
	order := hyperliquid.CreateOrderRequest{
		Coin:          req.Market,
		IsBuy:         true,
		Price:         px,
		Size:          size,
		ClientOrderID: &cloid,
		OrderType: hyperliquid.OrderType{
			Limit: &hyperliquid.LimitOrderType{Tif: hyperliquid.TifIoc},
		},
	}

	status, err := t.ex.Order(ctx, order, nil)
	if err != nil {
		return domain.OrderResult{}, errors.Wrapf(err, "place hyperliquid order on %s", req.Market)
	}

	switch {
	case status.Error != nil:
		return domain.OrderResult{Status: domain.OrderRejected, Message: *status.Error}, nil
	case status.Filled != nil:
		filled, err := decimal.NewFromString(status.Filled.TotalSz)
		if err != nil {
			return domain.OrderResult{}, errors.Wrap(err, "decode filled size")
		}
		avg, err := decimal.NewFromString(status.Filled.AvgPx)
		if err != nil {
			return domain.OrderResult{}, errors.Wrap(err, "decode average price")
		}
		return domain.OrderResult{
			Status:     domain.OrderFilled,
			OrderID:    strconv.FormatInt(int64(status.Filled.Oid), 10),
			FilledSize: filled,
			AvgPrice:   avg,
		}, nil
	case status.Resting != nil:
		return domain.OrderResult{
			Status:  domain.OrderUnfilled,
			OrderID: strconv.FormatInt(int64(status.Resting.Oid), 10),
			Message: "order resting instead of immediate fill",
		}, nil
	default:
		return domain.OrderResult{Status: domain.OrderUnfilled, Message: "accepted without fill"}, nil
	}
}

// GetBalance returns the spot balance of currency that is not held by open orders.
func (t *HyperliquidTrader) GetBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	st, err := t.info.SpotUserState(ctx, t.accountAddr)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "get spot user state")
	}
	return availableBalance(st.Balances, currency)
}

// availableBalance is total minus hold, never negative.
func availableBalance(balances []hyperliquid.SpotBalance, currency string) (decimal.Decimal, error) {
	for _, b := range balances {
		if !strings.EqualFold(b.Coin, currency) {
			continue
		}

		total, err := decimal.NewFromString(b.Total)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "decode %s balance", currency)
		}
		hold := decimal.Zero
		if b.Hold != "" {
			if hold, err = decimal.NewFromString(b.Hold); err != nil {
				return decimal.Zero, errors.Wrapf(err, "decode %s hold", currency)
			}
		}

		free := total.Sub(hold)
		if free.IsNegative() {
			return decimal.Zero, nil
		}
		return free, nil
	}
	return decimal.Zero, nil
}

// RoundPrice rounds to five significant figures and at most eight decimals.
func RoundPrice(price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return price
	}

	// digits before the decimal point
	intDigits := int32(len(price.Truncate(0).String()))
	if price.LessThan(decimal.NewFromInt(1)) {
		intDigits = 0
		for p := price; p.LessThan(decimal.RequireFromString("0.1")); p = p.Shift(1) {
			intDigits--
		}
	}

	places := priceSignificantFigures - intDigits
	if places > maxSpotPriceDecimals {
		places = maxSpotPriceDecimals
	}
	return price.Round(places)
}
