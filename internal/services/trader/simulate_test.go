package trader

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/voldca/internal/cache"
	"github.com/vadiminshakov/voldca/internal/domain"
	"github.com/vadiminshakov/voldca/internal/storage/simstate"
	"go.uber.org/zap"
)

type mockPricer struct {
	mock.Mock
}

func (m *mockPricer) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	args := m.Called(ctx, pair)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

var btc = domain.NewPair("BTC", "USDC")

func newSimulator(t *testing.T, dir string, p Pricer) *SimulateTrader {
	t.Helper()

	store, err := simstate.NewStore(dir, "test")
	require.NoError(t, err)

	tr, err := NewSimulateTrader(zap.NewNop(), p, store, map[string]decimal.Decimal{"USDC": decimal.NewFromInt(1000)})
	require.NoError(t, err)
	return tr
}

func TestSimulateTrader_Fill(t *testing.T) {
	dir := t.TempDir()
	p := &mockPricer{}
	p.On("GetPrice", mock.Anything, btc).Return(decimal.NewFromInt(50000), nil)

	tr := newSimulator(t, dir, p)
	res, err := tr.PlaceOrder(context.Background(), domain.OrderRequest{
		Pair:       btc,
		Size:       decimal.RequireFromString("0.002"),
		LimitPrice: decimal.NewFromInt(50250),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderFilled, res.Status)
	assert.True(t, res.AvgPrice.Equal(decimal.NewFromInt(50000)))
	assert.NotEmpty(t, res.OrderID)

	quote, _ := tr.GetBalance(context.Background(), "usdc")
	base, _ := tr.GetBalance(context.Background(), "BTC")
	assert.True(t, quote.Equal(decimal.NewFromInt(900)), quote.String())
	assert.True(t, base.Equal(decimal.RequireFromString("0.002")))

	// wallet survives a restart
	restarted := newSimulator(t, dir, p)
	quote, _ = restarted.GetBalance(context.Background(), "USDC")
	assert.True(t, quote.Equal(decimal.NewFromInt(900)), quote.String())
}

func TestSimulateTrader_Unfilled(t *testing.T) {
	p := &mockPricer{}
	p.On("GetPrice", mock.Anything, btc).Return(decimal.NewFromInt(50000), nil)

	tr := newSimulator(t, t.TempDir(), p)
	res, err := tr.PlaceOrder(context.Background(), domain.OrderRequest{
		Pair:       btc,
		Size:       decimal.RequireFromString("0.002"),
		LimitPrice: decimal.NewFromInt(49000),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderUnfilled, res.Status)
}

func TestSimulateTrader_Rejected(t *testing.T) {
	p := &mockPricer{}
	p.On("GetPrice", mock.Anything, btc).Return(decimal.NewFromInt(50000), nil)

	tr := newSimulator(t, t.TempDir(), p)
	res, err := tr.PlaceOrder(context.Background(), domain.OrderRequest{
		Pair:       btc,
		Size:       decimal.NewFromInt(1),
		LimitPrice: decimal.NewFromInt(51000),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRejected, res.Status)
}

func TestRoundPrice(t *testing.T) {
	tests := map[string]string{
		"50123.456":  "50123",
		"123456.7":   "123457",
		"1.234567":   "1.2346",
		"0.01234567": "0.012346",
		"99.99999":   "100",
	}
	for in, want := range tests {
		got := RoundPrice(decimal.RequireFromString(in))
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%s -> %s, want %s", in, got, want)
	}
}

func TestCloidFromID(t *testing.T) {
	a := cloidFromID("cycle-1")
	assert.Equal(t, a, cloidFromID("cycle-1"))
	assert.Len(t, a, 34)
	assert.NotEqual(t, a, cloidFromID("cycle-2"))
}

type countingBalance struct {
	calls int
}

func (c *countingBalance) GetBalance(context.Context, string) (decimal.Decimal, error) {
	c.calls++
	return decimal.NewFromInt(int64(100 * c.calls)), nil
}

func TestCachedBalance(t *testing.T) {
	ctx := context.Background()
	inner := &countingBalance{}
	b := NewCachedBalance(inner, cache.NewMemory(), 0)

	first, err := b.GetBalance(ctx, "usdc")
	require.NoError(t, err)
	second, err := b.GetBalance(ctx, "USDC")
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
	assert.Equal(t, 1, inner.calls)

	require.NoError(t, b.Invalidate(ctx, "USDC"))
	third, err := b.GetBalance(ctx, "USDC")
	require.NoError(t, err)
	assert.True(t, third.Equal(decimal.NewFromInt(200)))
}
