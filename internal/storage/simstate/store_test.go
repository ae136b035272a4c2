package simstate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoad(t *testing.T) {
	store, err := NewStore(t.TempDir(), "Simulated Wallet!")
	require.NoError(t, err)
	assert.Contains(t, store.path, "simulated_wallet.json")

	missing, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, missing)

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.Save(NewState(map[string]decimal.Decimal{
		"usdc": decimal.NewFromInt(1000),
		"BTC":  decimal.RequireFromString("0.015"),
	}, now)))

	state, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.True(t, state.UpdatedAt.Equal(now))

	balances, err := state.Balances()
	require.NoError(t, err)
	assert.True(t, balances["USDC"].Equal(decimal.NewFromInt(1000)))
	assert.True(t, balances["BTC"].Equal(decimal.RequireFromString("0.015")))
}
