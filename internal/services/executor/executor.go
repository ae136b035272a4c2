// Package executor runs one purchase cycle for one asset.
package executor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/voldca/internal/domain"
	"github.com/vadiminshakov/voldca/internal/notifier"
	"github.com/vadiminshakov/voldca/internal/services/scheduler"
	"github.com/vadiminshakov/voldca/internal/services/sizer"
	"github.com/vadiminshakov/voldca/internal/services/strategy"
	"github.com/vadiminshakov/voldca/internal/services/volatility"
	"github.com/vadiminshakov/voldca/pkg/retrier"
	"go.uber.org/zap"
)

// extra days fetched beyond the volatility window so weekends and gaps don't starve it
const historyPadding = 5

// Pricer returns the current execution price.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

// PriceHistory returns daily closes.
type PriceHistory interface {
	GetDailyPrices(ctx context.Context, pair domain.Pair, days int) (domain.PriceSeries, error)
}

// Trader reads balances and places immediate-or-cancel buys.
type Trader interface {
	GetBalance(ctx context.Context, currency string) (decimal.Decimal, error)
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error)
}

// TradeStore is the append-only trade ledger.
type TradeStore interface {
	Load(ctx context.Context, asset string) ([]domain.TradeRecord, error)
	Append(ctx context.Context, asset string, rec domain.TradeRecord) error
}

// Journal records every finished cycle.
type Journal interface {
	SaveCycle(event domain.CycleEvent) error
}

type balanceInvalidator interface {
	Invalidate(ctx context.Context, currency string) error
}

// Deps are the collaborators of an Executor. Trader may be nil when no account is configured;
// Journal and Notifier are optional.
type Deps struct {
	Prices   Pricer
	History  PriceHistory
	Trader   Trader
	Store    TradeStore
	Journal  Journal
	Notifier notifier.Notifier
}

// Executor drives Gated, Sizing, Balancing, Pricing, Submitting and Recording for one asset.
type Executor struct {
	l          *zap.Logger
	cfg        domain.AssetConfig
	pair       domain.Pair
	strategies []strategy.Strategy
	deps       Deps
	retrier    *retrier.Retrier
	now        func() time.Time
	newID      func() string
}

// Option configures an Executor.
type Option func(*Executor)

// WithRetrier overrides the order re-submission policy.
func WithRetrier(r *retrier.Retrier) Option {
	return func(e *Executor) {
		e.retrier = r
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// WithStrategies replaces the strategies built from the asset config.
func WithStrategies(s ...strategy.Strategy) Option {
	return func(e *Executor) {
		e.strategies = s
	}
}

func New(l *zap.Logger, cfg domain.AssetConfig, quote string, deps Deps, opts ...Option) (*Executor, error) {
	if deps.Prices == nil {
		return nil, errors.New("price feed is required")
	}
	if deps.History == nil {
		return nil, errors.New("price history feed is required")
	}
	if deps.Store == nil {
		return nil, errors.New("trade store is required")
	}
	if deps.Notifier == nil {
		deps.Notifier = notifier.Nop{}
	}

	e := &Executor{
		l:          l.With(zap.String("asset", cfg.Symbol)),
		cfg:        cfg,
		pair:       cfg.Pair(quote),
		strategies: strategy.FromConfig(cfg),
		deps:       deps,
		// one re-submission at most
		retrier: retrier.New(retrier.WithMaxRetries(1), retrier.WithInitialInterval(2*time.Second)),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Asset returns the symbol this executor trades.
func (e *Executor) Asset() string {
	return e.cfg.Symbol
}

// Run executes one cycle. Expected branches and failures are reported in the outcome, never as errors.
func (e *Executor) Run(ctx context.Context, force bool) domain.Outcome {
	cycleID := e.newID()
	o := e.run(ctx, cycleID, force)
	e.finish(ctx, cycleID, o)
	return o
}

func (e *Executor) run(ctx context.Context, cycleID string, force bool) domain.Outcome {
	o := domain.Outcome{Asset: e.cfg.Symbol, Volatility: domain.VolatilityUnavailable}
	now := e.now()

	// gated
	history, err := e.deps.Store.Load(ctx, e.cfg.Symbol)
	if err != nil {
		return o.Fail(domain.StageGated, "trade history unreadable", causedBy(ErrHistoryRead, err))
	}
	if !force && !scheduler.IsDue(history, e.cfg.Frequency, now) {
		reason := "not due"
		if next, ok := scheduler.NextDue(history, e.cfg.Frequency, now); ok {
			reason = fmt.Sprintf("not due until %s", next.UTC().Format(time.RFC3339))
		}
		return o.Skip(domain.StageGated, reason)
	}

	// sizing
	prices := e.priceHistory(ctx)
	o.Volatility = volatility.Calculate(prices, e.cfg.VolatilityWindow)
	o.BaseSize = sizer.Size(o.Volatility, e.cfg)

	decision, evals := strategy.EvaluateAll(e.strategies, prices)
	for _, ev := range evals {
		e.l.Debug("strategy evaluated",
			zap.String("strategy", ev.Strategy),
			zap.Bool("proceed", ev.Decision.Proceed),
			zap.Float64("multiplier", ev.Decision.SizeMultiplier),
			zap.String("reason", ev.Decision.Reason))
	}
	if !decision.Proceed {
		return o.Skip(domain.StageSizing, decision.Reason)
	}
	o.Multiplier = decision.SizeMultiplier
	o.FinalAmount = o.BaseSize.Mul(decimal.NewFromFloat(decision.SizeMultiplier)).Round(2)

	e.l.Info("sized purchase",
		zap.Stringer("volatility", o.Volatility),
		zap.String("regime", string(domain.RegimeOf(o.Volatility, e.cfg.LowVolThreshold, e.cfg.HighVolThreshold))),
		zap.String("base_size", o.BaseSize.String()),
		zap.Float64("multiplier", o.Multiplier),
		zap.String("final_amount", o.FinalAmount.String()))

	// balancing
	if e.deps.Trader == nil {
		return o.Fail(domain.StageBalancing, "no account configured", ErrNoAccount)
	}
	balance, err := e.deps.Trader.GetBalance(ctx, e.pair.To)
	if err != nil {
		e.l.Warn("balance unavailable, treating as zero", zap.Error(err))
		balance = decimal.Zero
	}
	if balance.LessThan(e.cfg.MinAmount) {
		return o.Fail(domain.StageBalancing, "insufficient funds",
			errors.Wrapf(ErrInsufficientFunds, "balance %s %s below minimum %s", balance.String(), e.pair.To, e.cfg.MinAmount.String()))
	}
	o.FinalAmount = decimal.Min(o.FinalAmount, balance)
	if o.FinalAmount.LessThan(e.cfg.MinOrderNotional) {
		return o.Fail(domain.StageBalancing, "below exchange minimum",
			errors.Wrapf(ErrBelowMinNotional, "amount %s below %s", o.FinalAmount.String(), e.cfg.MinOrderNotional.String()))
	}

	// pricing
	price, err := e.deps.Prices.GetPrice(ctx, e.pair)
	if err == nil && !price.IsPositive() {
		err = errors.Errorf("non-positive price %s", price.String())
	}
	if err != nil {
		return o.Fail(domain.StagePricing, "no price source", causedBy(ErrNoPriceSource, err))
	}
	o.Price = price

	// submitting
	size := o.FinalAmount.Div(price).RoundDown(e.cfg.SizeDecimals)
	if !size.IsPositive() {
		return o.Fail(domain.StageSubmitting, "order size rounds to zero",
			errors.Wrapf(ErrBelowMinNotional, "%s at %s", o.FinalAmount.String(), price.String()))
	}

	fill, err := e.submit(ctx, cycleID, price, size)
	if err != nil {
		reason := "order rejected"
		if errors.Is(err, ErrOrderUnfilled) {
			reason = "order not filled"
		}
		return o.Fail(domain.StageSubmitting, reason, err)
	}
	if inv, ok := e.deps.Trader.(balanceInvalidator); ok {
		if err := inv.Invalidate(ctx, e.pair.To); err != nil {
			e.l.Debug("failed to invalidate cached balance", zap.Error(err))
		}
	}

	// recording
	filled := fill.FilledSize
	if !filled.IsPositive() {
		filled = size
	}
	avg := fill.AvgPrice
	if !avg.IsPositive() {
		avg = price
	}

	rec, err := domain.NewTradeRecord(e.now(), e.cfg.Symbol, avg, filled.Mul(avg).Round(2), filled, o.Volatility, fill.OrderID)
	if err != nil {
		return o.Fail(domain.StageRecording, "invalid fill", causedBy(ErrHistoryWrite, err))
	}
	if err := e.deps.Store.Append(ctx, e.cfg.Symbol, rec); err != nil {
		o.Record = &rec
		return o.Fail(domain.StageRecording, "trade history write failed", causedBy(ErrHistoryWrite, err))
	}

	return o.Succeed(rec)
}

// priceHistory returns the daily closes the calculator and strategies need.
// Errors are logged and yield an empty series so that every consumer fails open.
func (e *Executor) priceHistory(ctx context.Context) domain.PriceSeries {
	days := e.cfg.VolatilityWindow + historyPadding
	if n := strategy.Lookback(e.strategies); n > days {
		days = n
	}

	prices, err := e.deps.History.GetDailyPrices(ctx, e.pair, days)
	if err != nil {
		e.l.Warn("price history unavailable", zap.Int("days", days), zap.Error(err))
		return nil
	}
	return prices
}

// submit places the order, re-submitting once with a wider limit when nothing filled.
func (e *Executor) submit(ctx context.Context, cycleID string, price, size decimal.Decimal) (domain.OrderResult, error) {
	var fill domain.OrderResult

	err := e.retrier.DoAttempt(ctx, func(ctx context.Context, attempt int) error {
		tolerance := e.cfg.Slippage.Mul(decimal.NewFromInt(int64(attempt + 1)))
		req := domain.OrderRequest{
			Pair:       e.pair,
			Market:     e.cfg.Market,
			Size:       size,
			LimitPrice: price.Mul(decimal.NewFromInt(1).Add(tolerance)),
			ClientID:   cycleID + "-" + strconv.Itoa(attempt),
		}

		res, err := e.deps.Trader.PlaceOrder(ctx, req)
		if err != nil {
			// the order may have reached the exchange, so never resubmit blindly
			return retrier.Unrecoverable(causedBy(ErrOrderRejected, err))
		}

		e.l.Info("order submitted",
			zap.Int("attempt", attempt),
			zap.String("size", size.String()),
			zap.String("limit", req.LimitPrice.String()),
			zap.Stringer("result", res))

		switch res.Status {
		case domain.OrderFilled:
			fill = res
			return nil
		case domain.OrderRejected:
			return retrier.Unrecoverable(withMessage(ErrOrderRejected, res.Message))
		default:
			return withMessage(ErrOrderUnfilled, res.Message)
		}
	})

	return fill, err
}

func (e *Executor) finish(ctx context.Context, cycleID string, o domain.Outcome) {
	fields := []zap.Field{
		zap.String("cycle", cycleID),
		zap.String("status", string(o.Status)),
		zap.String("stage", string(o.Stage)),
		zap.String("reason", o.Reason),
	}
	switch o.Status {
	case domain.OutcomeFailed:
		e.l.Error("purchase cycle failed", append(fields, zap.Error(o.Cause))...)
	case domain.OutcomeRecorded:
		e.l.Info("purchase recorded", append(fields, zap.Stringer("trade", o.Record))...)
	default:
		e.l.Info("purchase skipped", fields...)
	}

	if e.deps.Journal != nil {
		if err := e.deps.Journal.SaveCycle(domain.NewCycleEvent(cycleID, e.now(), o)); err != nil {
			e.l.Warn("failed to journal cycle", zap.Error(err))
		}
	}

	if msg, ok := notifier.FormatOutcome(o); ok {
		e.deps.Notifier.Notify(ctx, msg)
	}
}
