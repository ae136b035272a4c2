package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/voldca/internal/domain"
	"github.com/vadiminshakov/voldca/internal/services/strategy"
	historyMock "github.com/vadiminshakov/voldca/mocks/history"
	journalMock "github.com/vadiminshakov/voldca/mocks/journal"
	notifierMock "github.com/vadiminshakov/voldca/mocks/notifier"
	pricerMock "github.com/vadiminshakov/voldca/mocks/pricer"
	traderMock "github.com/vadiminshakov/voldca/mocks/trader"
	"github.com/vadiminshakov/voldca/pkg/retrier"
	"go.uber.org/zap"
)

var (
	now  = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	pair = domain.NewPair("BTC", "USDC")
)

func decimalMatcher(expected decimal.Decimal) interface{} {
	return mock.MatchedBy(func(actual decimal.Decimal) bool {
		return expected.Equal(actual)
	})
}

type stubStrategy struct {
	d domain.Decision
}

func (stubStrategy) Name() string                                  { return "stub" }
func (stubStrategy) Lookback() int                                 { return 0 }
func (s stubStrategy) Evaluate(domain.PriceSeries) domain.Decision { return s.d }

func testConfig(t *testing.T) domain.AssetConfig {
	t.Helper()

	cfg, err := domain.NewAssetConfig(domain.AssetConfig{
		Symbol:           "BTC",
		Market:           "UBTC/USDC",
		BaseAmount:       decimal.NewFromInt(100),
		MinAmount:        decimal.NewFromInt(50),
		MaxAmount:        decimal.NewFromInt(200),
		Frequency:        domain.FrequencyWeekly,
		VolatilityWindow: 5,
		LowVolThreshold:  20,
		HighVolThreshold: 40,
		Enabled:          true,
		SizeDecimals:     5,
		Slippage:         decimal.RequireFromString("0.005"),
		MinOrderNotional: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	return cfg
}

type fixture struct {
	prices  *pricerMock.Pricer
	history *historyMock.PriceHistory
	trader  *traderMock.Trader
	store   *historyMock.TradeStore
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		prices:  pricerMock.NewPricer(t),
		history: historyMock.NewPriceHistory(t),
		trader:  traderMock.NewTrader(t),
		store:   historyMock.NewTradeStore(t),
	}
}

func (f *fixture) deps() Deps {
	return Deps{Prices: f.prices, History: f.history, Trader: f.trader, Store: f.store}
}

func newExecutor(t *testing.T, cfg domain.AssetConfig, deps Deps, opts ...Option) *Executor {
	t.Helper()

	opts = append([]Option{
		WithClock(func() time.Time { return now }),
		WithRetrier(retrier.New(retrier.WithMaxRetries(1), retrier.WithInitialInterval(time.Millisecond))),
	}, opts...)

	e, err := New(zap.NewNop(), cfg, "USDC", deps, opts...)
	require.NoError(t, err)
	return e
}

func filled(size, price string) domain.OrderResult {
	return domain.OrderResult{
		Status:     domain.OrderFilled,
		OrderID:    "42",
		FilledSize: decimal.RequireFromString(size),
		AvgPrice:   decimal.RequireFromString(price),
	}
}

func TestExecutor_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	journal := journalMock.NewJournal(t)
	notify := notifierMock.NewNotifier(t)

	f.store.On("Load", mock.Anything, "BTC").Return(nil, nil)
	f.history.On("GetDailyPrices", mock.Anything, pair, 10).Return(nil, errors.New("no candles"))
	f.trader.On("GetBalance", mock.Anything, "USDC").Return(decimal.NewFromInt(40), nil)
	journal.On("SaveCycle", mock.MatchedBy(func(ev domain.CycleEvent) bool {
		return ev.Asset == "BTC" && ev.Status == domain.OutcomeFailed && ev.Stage == domain.StageBalancing
	})).Return(nil)
	notify.On("Notify", mock.Anything, mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "insufficient funds")
	})).Return()

	deps := f.deps()
	deps.Journal = journal
	deps.Notifier = notify

	out := newExecutor(t, testConfig(t), deps).Run(context.Background(), false)

	assert.Equal(t, domain.OutcomeFailed, out.Status)
	assert.Equal(t, domain.StageBalancing, out.Stage)
	assert.Equal(t, "insufficient funds", out.Reason)
	require.ErrorIs(t, out.Cause, ErrInsufficientFunds)
	assert.False(t, out.Volatility.Available)
	assert.True(t, out.BaseSize.Equal(decimal.NewFromInt(100)))
}

func TestExecutor_BalanceErrorCountsAsZero(t *testing.T) {
	f := newFixture(t)
	f.store.On("Load", mock.Anything, "BTC").Return(nil, nil)
	f.history.On("GetDailyPrices", mock.Anything, pair, mock.Anything).Return(nil, errors.New("down"))
	f.trader.On("GetBalance", mock.Anything, "USDC").Return(decimal.Zero, errors.New("timeout"))

	out := newExecutor(t, testConfig(t), f.deps()).Run(context.Background(), false)

	require.ErrorIs(t, out.Cause, ErrInsufficientFunds)
}

func TestExecutor_NotDue(t *testing.T) {
	f := newFixture(t)
	f.store.On("Load", mock.Anything, "BTC").Return([]domain.TradeRecord{
		{Timestamp: now.Add(-6*24*time.Hour - 23*time.Hour), Asset: "BTC"},
	}, nil)

	out := newExecutor(t, testConfig(t), f.deps()).Run(context.Background(), false)

	assert.Equal(t, domain.OutcomeSkipped, out.Status)
	assert.Equal(t, domain.StageGated, out.Stage)
	assert.Contains(t, out.Reason, "not due until")
	assert.False(t, out.Failed())
}

func TestExecutor_RecordsFill(t *testing.T) {
	for _, force := range []bool{false, true} {
		t.Run(fmt.Sprintf("force=%t", force), func(t *testing.T) {
			f := newFixture(t)

			var history []domain.TradeRecord
			if force {
				// traded yesterday, only force gets past the gate
				history = []domain.TradeRecord{{Timestamp: now.Add(-24 * time.Hour), Asset: "BTC"}}
			}

			f.store.On("Load", mock.Anything, "BTC").Return(history, nil)
			f.history.On("GetDailyPrices", mock.Anything, pair, 10).Return(domain.PriceSeries{}, nil)
			f.trader.On("GetBalance", mock.Anything, "USDC").Return(decimal.NewFromInt(1000), nil)
			f.prices.On("GetPrice", mock.Anything, pair).Return(decimal.NewFromInt(50000), nil)
			f.trader.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(req domain.OrderRequest) bool {
				return req.Market == "UBTC/USDC" &&
					req.Size.Equal(decimal.RequireFromString("0.002")) &&
					req.LimitPrice.Equal(decimal.NewFromInt(50250)) &&
					strings.HasSuffix(req.ClientID, "-0")
			})).Return(filled("0.002", "50000"), nil).Once()
			f.store.On("Append", mock.Anything, "BTC", mock.MatchedBy(func(rec domain.TradeRecord) bool {
				return rec.QuoteAmount.Equal(decimal.NewFromInt(100)) &&
					rec.BaseAmount.Equal(decimal.RequireFromString("0.002")) &&
					rec.Price.Equal(decimal.NewFromInt(50000)) &&
					rec.Volatility == 0 &&
					rec.ExternalRef == "42" &&
					rec.Timestamp.Equal(now)
			})).Return(nil)

			out := newExecutor(t, testConfig(t), f.deps()).Run(context.Background(), force)

			require.Equal(t, domain.OutcomeRecorded, out.Status, out.String())
			require.NotNil(t, out.Record)
			assert.True(t, out.FinalAmount.Equal(decimal.NewFromInt(100)))
			assert.True(t, out.Price.Equal(decimal.NewFromInt(50000)))
			assert.InDelta(t, 1.0, out.Multiplier, 1e-12)
		})
	}
}

func TestExecutor_ClampsToBalance(t *testing.T) {
	f := newFixture(t)
	f.store.On("Load", mock.Anything, "BTC").Return(nil, nil)
	f.history.On("GetDailyPrices", mock.Anything, pair, mock.Anything).Return(nil, errors.New("down"))
	f.trader.On("GetBalance", mock.Anything, "USDC").Return(decimal.NewFromInt(60), nil)
	f.prices.On("GetPrice", mock.Anything, pair).Return(decimal.NewFromInt(30000), nil)
	f.trader.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(req domain.OrderRequest) bool {
		return req.Size.Equal(decimal.RequireFromString("0.002"))
	})).Return(filled("0.002", "30000"), nil)
	f.store.On("Append", mock.Anything, "BTC", mock.Anything).Return(nil)

	out := newExecutor(t, testConfig(t), f.deps()).Run(context.Background(), false)

	require.Equal(t, domain.OutcomeRecorded, out.Status, out.String())
	assert.True(t, out.FinalAmount.Equal(decimal.NewFromInt(60)))
}

func TestExecutor_VetoSkips(t *testing.T) {
	f := newFixture(t)
	f.store.On("Load", mock.Anything, "BTC").Return(nil, nil)
	f.history.On("GetDailyPrices", mock.Anything, pair, mock.Anything).Return(domain.PriceSeries{}, nil)

	e := newExecutor(t, testConfig(t), f.deps(),
		WithStrategies(stubStrategy{d: domain.ProceedWith(2.5, "dip")}, stubStrategy{d: domain.Veto("rsi 75.0 overbought")}))
	out := e.Run(context.Background(), false)

	assert.Equal(t, domain.OutcomeSkipped, out.Status)
	assert.Equal(t, domain.StageSizing, out.Stage)
	assert.Equal(t, "rsi 75.0 overbought", out.Reason)
}

func TestExecutor_BelowMinNotional(t *testing.T) {
	f := newFixture(t)
	f.store.On("Load", mock.Anything, "BTC").Return(nil, nil)
	f.history.On("GetDailyPrices", mock.Anything, pair, mock.Anything).Return(domain.PriceSeries{}, nil)
	f.trader.On("GetBalance", mock.Anything, "USDC").Return(decimal.NewFromInt(1000), nil)

	e := newExecutor(t, testConfig(t), f.deps(), WithStrategies(stubStrategy{d: domain.ProceedWith(0.05, "shrink")}))
	out := e.Run(context.Background(), false)

	assert.Equal(t, domain.StageBalancing, out.Stage)
	require.ErrorIs(t, out.Cause, ErrBelowMinNotional)
}

func TestExecutor_NoAccount(t *testing.T) {
	f := newFixture(t)
	f.store.On("Load", mock.Anything, "BTC").Return(nil, nil)
	f.history.On("GetDailyPrices", mock.Anything, pair, mock.Anything).Return(domain.PriceSeries{}, nil)

	deps := f.deps()
	deps.Trader = nil

	out := newExecutor(t, testConfig(t), deps).Run(context.Background(), false)

	assert.Equal(t, domain.OutcomeFailed, out.Status)
	require.ErrorIs(t, out.Cause, ErrNoAccount)
}

func TestExecutor_NoPriceSource(t *testing.T) {
	f := newFixture(t)
	f.store.On("Load", mock.Anything, "BTC").Return(nil, nil)
	f.history.On("GetDailyPrices", mock.Anything, pair, mock.Anything).Return(domain.PriceSeries{}, nil)
	f.trader.On("GetBalance", mock.Anything, "USDC").Return(decimal.NewFromInt(1000), nil)
	f.prices.On("GetPrice", mock.Anything, pair).Return(decimal.Zero, errors.New("all feeds down"))

	out := newExecutor(t, testConfig(t), f.deps()).Run(context.Background(), false)

	assert.Equal(t, domain.StagePricing, out.Stage)
	require.ErrorIs(t, out.Cause, ErrNoPriceSource)
	assert.Contains(t, out.String(), "all feeds down")
}

func TestExecutor_RetriesUnfilledOnceWithWiderLimit(t *testing.T) {
	f := newFixture(t)
	f.store.On("Load", mock.Anything, "BTC").Return(nil, nil)
	f.history.On("GetDailyPrices", mock.Anything, pair, mock.Anything).Return(domain.PriceSeries{}, nil)
	f.trader.On("GetBalance", mock.Anything, "USDC").Return(decimal.NewFromInt(1000), nil)
	f.prices.On("GetPrice", mock.Anything, pair).Return(decimal.NewFromInt(50000), nil)
	f.trader.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(req domain.OrderRequest) bool {
		return req.LimitPrice.Equal(decimal.NewFromInt(50250))
	})).Return(domain.OrderResult{Status: domain.OrderUnfilled}, nil).Once()
	f.trader.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(req domain.OrderRequest) bool {
		return req.LimitPrice.Equal(decimal.NewFromInt(50500)) && strings.HasSuffix(req.ClientID, "-1")
	})).Return(filled("0.002", "50400"), nil).Once()
	f.store.On("Append", mock.Anything, "BTC", mock.MatchedBy(func(rec domain.TradeRecord) bool {
		return rec.Price.Equal(decimal.NewFromInt(50400)) && rec.QuoteAmount.Equal(decimal.RequireFromString("100.8"))
	})).Return(nil)

	out := newExecutor(t, testConfig(t), f.deps()).Run(context.Background(), false)

	require.Equal(t, domain.OutcomeRecorded, out.Status, out.String())
}

func TestExecutor_UnfilledAfterRetryFails(t *testing.T) {
	f := newFixture(t)
	f.store.On("Load", mock.Anything, "BTC").Return(nil, nil)
	f.history.On("GetDailyPrices", mock.Anything, pair, mock.Anything).Return(domain.PriceSeries{}, nil)
	f.trader.On("GetBalance", mock.Anything, "USDC").Return(decimal.NewFromInt(1000), nil)
	f.prices.On("GetPrice", mock.Anything, pair).Return(decimal.NewFromInt(50000), nil)
	f.trader.On("PlaceOrder", mock.Anything, mock.Anything).
		Return(domain.OrderResult{Status: domain.OrderUnfilled, Message: "no liquidity"}, nil).Times(2)

	out := newExecutor(t, testConfig(t), f.deps()).Run(context.Background(), false)

	assert.Equal(t, domain.StageSubmitting, out.Stage)
	assert.Equal(t, "order not filled", out.Reason)
	require.ErrorIs(t, out.Cause, ErrOrderUnfilled)
}

func TestExecutor_RejectedIsNotRetried(t *testing.T) {
	f := newFixture(t)
	f.store.On("Load", mock.Anything, "BTC").Return(nil, nil)
	f.history.On("GetDailyPrices", mock.Anything, pair, mock.Anything).Return(domain.PriceSeries{}, nil)
	f.trader.On("GetBalance", mock.Anything, "USDC").Return(decimal.NewFromInt(1000), nil)
	f.prices.On("GetPrice", mock.Anything, pair).Return(decimal.NewFromInt(50000), nil)
	f.trader.On("PlaceOrder", mock.Anything, mock.Anything).
		Return(domain.OrderResult{Status: domain.OrderRejected, Message: "tick size"}, nil).Once()

	out := newExecutor(t, testConfig(t), f.deps()).Run(context.Background(), false)

	assert.Equal(t, "order rejected", out.Reason)
	require.ErrorIs(t, out.Cause, ErrOrderRejected)
	assert.False(t, errors.Is(out.Cause, ErrOrderUnfilled))
}

func TestExecutor_HistoryWriteFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	f.store.On("Load", mock.Anything, "BTC").Return(nil, nil)
	f.history.On("GetDailyPrices", mock.Anything, pair, mock.Anything).Return(domain.PriceSeries{}, nil)
	f.trader.On("GetBalance", mock.Anything, "USDC").Return(decimal.NewFromInt(1000), nil)
	f.prices.On("GetPrice", mock.Anything, pair).Return(decimal.NewFromInt(50000), nil)
	f.trader.On("PlaceOrder", mock.Anything, mock.Anything).Return(filled("0.002", "50000"), nil)
	f.store.On("Append", mock.Anything, "BTC", mock.Anything).Return(errors.New("disk full"))

	out := newExecutor(t, testConfig(t), f.deps()).Run(context.Background(), false)

	assert.Equal(t, domain.StageRecording, out.Stage)
	require.ErrorIs(t, out.Cause, ErrHistoryWrite)
	require.NotNil(t, out.Record)
	assert.True(t, out.Record.BaseAmount.Equal(decimal.RequireFromString("0.002")))
}

func TestExecutor_HistoryReadFailure(t *testing.T) {
	f := newFixture(t)
	f.store.On("Load", mock.Anything, "BTC").Return(nil, errors.New("corrupt"))

	out := newExecutor(t, testConfig(t), f.deps()).Run(context.Background(), true)

	assert.Equal(t, domain.StageGated, out.Stage)
	require.ErrorIs(t, out.Cause, ErrHistoryRead)
}

// Contrarian sizing and the dip boost are combined by plain multiplication:
// a sharp drop raises volatility to the minimum size, and the dip tier doubles it.
func TestExecutor_SizingAndDipMultiply(t *testing.T) {
	start := now.Add(-21 * 24 * time.Hour)
	points := make([]domain.PricePoint, 0, 21)
	for i := 0; i < 20; i++ {
		points = append(points, domain.PricePoint{Date: start.Add(time.Duration(i) * 24 * time.Hour), Price: decimal.NewFromInt(100)})
	}
	points = append(points, domain.PricePoint{Date: start.Add(20 * 24 * time.Hour), Price: decimal.NewFromInt(90)})
	series, err := domain.NewPriceSeries(points)
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.MovingAverage = &domain.MovingAverageConfig{
		Periods:       []int{5},
		DipThresholds: map[int]float64{5: 0.05},
		Kind:          domain.MAKindSMA,
	}
	cfg, err = domain.NewAssetConfig(cfg)
	require.NoError(t, err)

	f := newFixture(t)
	f.store.On("Load", mock.Anything, "BTC").Return(nil, nil)
	f.history.On("GetDailyPrices", mock.Anything, pair, 10).Return(series, nil)
	f.trader.On("GetBalance", mock.Anything, "USDC").Return(decimal.NewFromInt(1000), nil)
	f.prices.On("GetPrice", mock.Anything, pair).Return(decimal.NewFromInt(90), nil)
	f.trader.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(req domain.OrderRequest) bool {
		return req.Size.Equal(decimal.RequireFromString("1.11111"))
	})).Return(filled("1.11111", "90"), nil)
	f.store.On("Append", mock.Anything, "BTC", mock.Anything).Return(nil)

	out := newExecutor(t, cfg, f.deps()).Run(context.Background(), false)

	require.Equal(t, domain.OutcomeRecorded, out.Status, out.String())
	require.True(t, out.Volatility.Available)
	assert.Greater(t, out.Volatility.Value, cfg.HighVolThreshold)
	assert.True(t, out.BaseSize.Equal(decimal.NewFromInt(50)), out.BaseSize.String())
	assert.InDelta(t, 2.0, out.Multiplier, 1e-12)
	assert.True(t, out.FinalAmount.Equal(decimal.NewFromInt(100)), out.FinalAmount.String())
}

func TestExecutor_FetchesLongestLookback(t *testing.T) {
	cfg := testConfig(t)
	cfg.RSI = &domain.RSIConfig{Period: 14, Oversold: 30, Overbought: 70, Wilder: true}
	cfg, err := domain.NewAssetConfig(cfg)
	require.NoError(t, err)

	f := newFixture(t)
	f.store.On("Load", mock.Anything, "BTC").Return(nil, nil)
	f.history.On("GetDailyPrices", mock.Anything, pair, strategy.NewRSI(*cfg.RSI).Lookback()).Return(nil, errors.New("down"))
	f.trader.On("GetBalance", mock.Anything, "USDC").Return(decimal.NewFromInt(10), nil)

	out := newExecutor(t, cfg, f.deps()).Run(context.Background(), false)
	require.ErrorIs(t, out.Cause, ErrInsufficientFunds)
}

func TestNew_RequiresFeeds(t *testing.T) {
	_, err := New(zap.NewNop(), testConfig(t), "USDC", Deps{})
	require.Error(t, err)
}

var _ strategy.Strategy = stubStrategy{}
