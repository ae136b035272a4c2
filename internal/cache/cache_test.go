package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))

	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(time.Minute)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, m.Invalidate(ctx, "k"))
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	calls := 0
	load := func(ctx context.Context) (decimal.Decimal, error) {
		calls++
		return decimal.RequireFromString("42000.5"), nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrLoad(ctx, m, "price:BTC", time.Minute, load)
		require.NoError(t, err)
		assert.True(t, v.Equal(decimal.RequireFromString("42000.5")))
	}
	assert.Equal(t, 1, calls)

	_, err := GetOrLoad(ctx, m, "price:ETH", time.Minute, func(ctx context.Context) (decimal.Decimal, error) {
		return decimal.Zero, errors.New("down")
	})
	require.Error(t, err)
	_, ok, _ := m.Get(ctx, "price:ETH")
	assert.False(t, ok)

	// nil cache always loads
	_, err = GetOrLoad(ctx, nil, "price:BTC", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
