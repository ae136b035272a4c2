package trader

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/voldca/internal/domain"
	"github.com/vadiminshakov/voldca/internal/storage/simstate"
	"go.uber.org/zap"
)

// Pricer defines an interface for getting the price of a trading pair.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

// SimulateTrader fills IOC buys against live mid prices using a persisted paper wallet.
type SimulateTrader struct {
	mu     sync.Mutex
	l      *zap.Logger
	wallet map[string]decimal.Decimal
	pricer Pricer
	store  *simstate.Store
	now    func() time.Time
}

// NewSimulateTrader restores the wallet from store or seeds it with initial balances.
func NewSimulateTrader(l *zap.Logger, pricer Pricer, store *simstate.Store, initial map[string]decimal.Decimal) (*SimulateTrader, error) {
	if pricer == nil {
		return nil, errors.New("pricer is required for SimulateTrader")
	}

	t := &SimulateTrader{
		l:      l,
		wallet: make(map[string]decimal.Decimal, len(initial)),
		pricer: pricer,
		store:  store,
		now:    time.Now,
	}
	for currency, amount := range initial {
		t.wallet[strings.ToUpper(currency)] = amount
	}

	state, err := store.Load()
	if err != nil {
		l.Warn("failed to restore simulate state", zap.Error(err))
	} else if state != nil {
		balances, err := state.Balances()
		if err != nil {
			return nil, errors.Wrap(err, "restore simulate wallet")
		}
		t.wallet = balances
	}

	l.Info("simulate init", zap.Any("wallet", t.snapshot()))
	return t, nil
}

// PlaceOrder fills at the mid price when the limit covers it.
func (t *SimulateTrader) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	mid, err := t.pricer.GetPrice(ctx, req.Pair)
	if err != nil {
		return domain.OrderResult{}, errors.Wrap(err, "get simulate fill price")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if req.LimitPrice.LessThan(mid) {
		return domain.OrderResult{Status: domain.OrderUnfilled, Message: "limit below market"}, nil
	}

	cost := req.Size.Mul(mid)
	quote := t.wallet[req.Pair.To]
	if quote.LessThan(cost) {
		return domain.OrderResult{Status: domain.OrderRejected, Message: "insufficient balance"}, nil
	}

	t.wallet[req.Pair.To] = quote.Sub(cost)
	t.wallet[req.Pair.From] = t.wallet[req.Pair.From].Add(req.Size)

	if err := t.store.Save(simstate.NewState(t.wallet, t.now())); err != nil {
		t.l.Warn("failed to persist simulate state", zap.Error(err))
	}

	t.l.Info("simulate fill",
		zap.String("pair", req.Pair.String()),
		zap.String("size", req.Size.String()),
		zap.String("price", mid.String()))

	return domain.OrderResult{
		Status:     domain.OrderFilled,
		OrderID:    uuid.NewString(),
		FilledSize: req.Size,
		AvgPrice:   mid,
	}, nil
}

func (t *SimulateTrader) GetBalance(_ context.Context, currency string) (decimal.Decimal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.wallet[strings.ToUpper(currency)], nil
}

func (t *SimulateTrader) snapshot() map[string]string {
	out := make(map[string]string, len(t.wallet))
	for c, v := range t.wallet {
		out[c] = v.String()
	}
	return out
}
